package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/afterlog/internal/logging"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/dmitrijs2005/afterlog/internal/rpc"
	"github.com/dmitrijs2005/afterlog/internal/server/services"
	"google.golang.org/grpc"
)

// UserService is the account API used by the auth handlers.
type UserService interface {
	SignUp(ctx context.Context, email, password string) (*services.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
}

// RecordService is the collection API used by the data handlers.
type RecordService interface {
	Insert(ctx context.Context, userID, collection string, rec models.Record) (models.Record, error)
	Update(ctx context.Context, userID, collection, id string, patch models.Record) (models.Record, error)
	Delete(ctx context.Context, userID, collection, id string) error
	Query(ctx context.Context, userID string, q models.Query) ([]models.Record, error)
}

// ExportService builds downloadable archives.
type ExportService interface {
	Export(ctx context.Context, userID string) (*services.ExportResult, error)
}

type GRPCServer struct {
	address   string
	users     UserService
	records   RecordService
	exports   ExportService
	logger    logging.Logger
	jwtSecret []byte
}

var _ rpc.Server = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, us UserService, rs RecordService, es ExportService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		records:   rs,
		exports:   es,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	// registers service
	rpc.RegisterServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
