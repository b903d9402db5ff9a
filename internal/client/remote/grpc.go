package remote

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/client/apperr"
	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/dmitrijs2005/afterlog/internal/rpc"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	callTimeout = 10 * time.Second
	// refreshLeeway is how close to expiry an access token is refreshed
	// before use.
	refreshLeeway = 30 * time.Second
)

// GRPCClient implements Service over the afterlog.v1.Afterlog gRPC service.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *rpc.Client
	clock       clockx.Clock

	sessions  sessionHolder
	refreshMu sync.Mutex
}

var _ Service = (*GRPCClient)(nil)

func NewGRPCClient(endpointURL string, clock clockx.Clock) (*GRPCClient, error) {
	if clock == nil {
		clock = clockx.Real{}
	}
	c := &GRPCClient{endpointURL: endpointURL, clock: clock}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(c.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor))
	if err != nil {
		return err
	}
	c.conn = conn
	c.client = rpc.NewClient(conn)
	return nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token to data calls. A token
// about to expire is refreshed first; a call rejected with "token expired"
// is retried once after a refresh.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if rpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	s := c.sessions.get()
	if s == nil {
		return ErrNotSignedIn
	}

	if c.expiresSoon(s) {
		fresh, err := c.refresh(ctx, s.AccessToken)
		if err != nil {
			return err
		}
		s = fresh
	}

	err := invoker(withAccessToken(ctx, s.AccessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	// The auth interceptor rejects an expired token before the method runs,
	// so sending the call once more with a fresh token cannot apply it twice.
	// Any other failure is returned as is.
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	fresh, err := c.refresh(ctx, s.AccessToken)
	if err != nil {
		return err
	}
	return invoker(withAccessToken(ctx, fresh.AccessToken), method, req, reply, cc, opts...)
}

// expiresSoon reads the expiry claim of the access token. The signature is
// the server's business, so the token is parsed unverified.
func (c *GRPCClient) expiresSoon(s *Session) bool {
	exp := s.ExpiresAt
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err == nil && claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if exp.IsZero() {
		return false
	}
	return !c.clock.Now().Add(refreshLeeway).Before(exp)
}

// refresh rotates the token pair. stale is the access token the caller
// used; if another call already replaced it, the current session is
// returned as is. A rejected refresh token ends the session.
func (c *GRPCClient) refresh(ctx context.Context, stale string) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cur := c.sessions.get()
	if cur == nil {
		return nil, ErrNotSignedIn
	}
	if cur.AccessToken != stale {
		return cur, nil
	}

	in, err := rpc.Encode(rpc.RefreshRequest{RefreshToken: cur.RefreshToken})
	if err != nil {
		return nil, err
	}
	out, err := c.client.Refresh(ctx, in)
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			c.sessions.set(nil)
		}
		return nil, err
	}

	s, err := decodeSession(out)
	if err != nil {
		return nil, err
	}
	c.sessions.set(s)
	return s, nil
}

type structCall func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

func decodeSession(out *structpb.Struct) (*Session, error) {
	var in rpc.Session
	if err := rpc.Decode(out, &in); err != nil {
		return nil, apperr.Wrap(apperr.Unknown, err)
	}
	return &Session{
		AccessToken:  in.AccessToken,
		RefreshToken: in.RefreshToken,
		UserID:       in.UserID,
		Email:        in.Email,
		ExpiresAt:    in.ExpiresAt,
	}, nil
}

func (c *GRPCClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, c.client.SignUp, email, password)
}

func (c *GRPCClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, c.client.SignIn, email, password)
}

func (c *GRPCClient) authenticate(ctx context.Context, call structCall, email, password string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	in, err := rpc.Encode(rpc.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, validation(err)
	}
	out, err := call(ctx, in)
	if err != nil {
		return nil, mapError(err, true)
	}
	s, err := decodeSession(out)
	if err != nil {
		return nil, err
	}
	c.sessions.set(s)
	return s, nil
}

func (c *GRPCClient) Resume(ctx context.Context, refreshToken string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	in, err := rpc.Encode(rpc.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, validation(err)
	}
	out, err := c.client.Refresh(ctx, in)
	if err != nil {
		return nil, mapError(err, true)
	}
	s, err := decodeSession(out)
	if err != nil {
		return nil, err
	}
	c.sessions.set(s)
	return s, nil
}

func (c *GRPCClient) SignOut(ctx context.Context) error {
	s := c.sessions.get()
	if s == nil {
		return nil
	}
	c.sessions.set(nil)

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	in, err := rpc.Encode(rpc.RefreshRequest{RefreshToken: s.RefreshToken})
	if err != nil {
		return validation(err)
	}
	_, err = c.client.SignOut(ctx, in)
	return mapError(err, true)
}

func (c *GRPCClient) CurrentSession() *Session {
	return c.sessions.get()
}

func (c *GRPCClient) Subscribe(fn func(*Session)) func() {
	return c.sessions.subscribe(fn)
}

func (c *GRPCClient) Insert(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	rec, err := models.Normalize(rec)
	if err != nil {
		return nil, validation(err)
	}
	return c.writeRecord(ctx, c.client.Insert, rpc.InsertRequest{Collection: collection, Record: rec})
}

func (c *GRPCClient) Update(ctx context.Context, collection, id string, patch models.Record) (models.Record, error) {
	patch, err := models.Normalize(patch)
	if err != nil {
		return nil, validation(err)
	}
	return c.writeRecord(ctx, c.client.Update, rpc.UpdateRequest{Collection: collection, ID: id, Patch: patch})
}

func (c *GRPCClient) writeRecord(ctx context.Context, call structCall, req any) (models.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	in, err := rpc.Encode(req)
	if err != nil {
		return nil, validation(err)
	}
	out, err := call(ctx, in)
	if err != nil {
		return nil, mapError(err, false)
	}
	var reply rpc.RecordReply
	if err := rpc.Decode(out, &reply); err != nil {
		return nil, apperr.Wrap(apperr.Unknown, err)
	}
	return reply.Record, nil
}

func (c *GRPCClient) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	in, err := rpc.Encode(rpc.DeleteRequest{Collection: collection, ID: id})
	if err != nil {
		return validation(err)
	}
	_, err = c.client.Delete(ctx, in)
	return mapError(err, false)
}

func (c *GRPCClient) Query(ctx context.Context, q models.Query) ([]models.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, validation(err)
	}
	q.Filters = slices.Clone(q.Filters)
	for i, f := range q.Filters {
		v, err := models.NormalizeValue(f.Value)
		if err != nil {
			return nil, validation(fmt.Errorf("filter %s: %w", f.Column, err))
		}
		q.Filters[i].Value = v
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	in, err := rpc.Encode(q)
	if err != nil {
		return nil, validation(err)
	}
	out, err := c.client.Query(ctx, in)
	if err != nil {
		return nil, mapError(err, false)
	}
	var reply rpc.QueryReply
	if err := rpc.Decode(out, &reply); err != nil {
		return nil, apperr.Wrap(apperr.Unknown, err)
	}
	return reply.Rows, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := c.client.Ping(ctx, &emptypb.Empty{})
	return mapError(err, false)
}

func (c *GRPCClient) Export(ctx context.Context) (*ExportResult, error) {
	// Export uploads to object storage server-side; give it more room.
	ctx, cancel := context.WithTimeout(ctx, 3*callTimeout)
	defer cancel()

	out, err := c.client.Export(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapError(err, false)
	}
	var reply rpc.ExportReply
	if err := rpc.Decode(out, &reply); err != nil {
		return nil, apperr.Wrap(apperr.Unknown, err)
	}
	return &ExportResult{
		URL:       reply.URL,
		Key:       reply.Key,
		Entries:   reply.Entries,
		Todos:     reply.Todos,
		ExpiresAt: reply.ExpiresAt,
	}, nil
}
