package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/dmitrijs2005/afterlog/internal/rpc"
	"github.com/dmitrijs2005/afterlog/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrRefreshTokenExpired, codes.Unauthenticated},
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrRateLimited, codes.ResourceExhausted},
	{common.ErrEmailTaken, codes.AlreadyExists},
	{common.ErrConflict, codes.AlreadyExists},
	{common.ErrWeakPassword, codes.InvalidArgument},
	{common.ErrInvalidEmail, codes.InvalidArgument},
	{common.ErrUnknownCollection, codes.InvalidArgument},
	{common.ErrUnknownColumn, codes.InvalidArgument},
	{common.ErrReadOnlyColumn, codes.InvalidArgument},
	{common.ErrInvalidValue, codes.InvalidArgument},
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrorForbidden, codes.PermissionDenied},
}

// toStatus maps service errors to gRPC statuses. Known errors keep their
// text, which the client shows to the user; anything else is logged and
// reported as an internal error.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, m := range statusCodes {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}

func badRequest(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

func (s *GRPCServer) session(ctx context.Context, pair *services.TokenPair, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return rpc.Encode(rpc.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       pair.UserID,
		Email:        pair.Email,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (s *GRPCServer) SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.Credentials
	if err := rpc.Decode(req, &in); err != nil {
		return nil, badRequest(err)
	}

	s.logger.Info(ctx, "Sign-up request")

	pair, err := s.users.SignUp(ctx, in.Email, in.Password)
	if err == nil {
		s.logger.Info(ctx, "Registered", "user_id", pair.UserID)
	}
	return s.session(ctx, pair, err)
}

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.Credentials
	if err := rpc.Decode(req, &in); err != nil {
		return nil, badRequest(err)
	}
	pair, err := s.users.SignIn(ctx, in.Email, in.Password)
	return s.session(ctx, pair, err)
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rpc.RefreshRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, badRequest(err)
	}
	pair, err := s.users.Refresh(ctx, in.RefreshToken)
	return s.session(ctx, pair, err)
}

func (s *GRPCServer) SignOut(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var in rpc.RefreshRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, badRequest(err)
	}
	if err := s.users.SignOut(ctx, in.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in rpc.InsertRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, badRequest(err)
	}
	rec, err := s.records.Insert(ctx, userID, in.Collection, in.Record)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return rpc.Encode(rpc.RecordReply{Record: rec})
}

func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in rpc.UpdateRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, badRequest(err)
	}
	rec, err := s.records.Update(ctx, userID, in.Collection, in.ID, in.Patch)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return rpc.Encode(rpc.RecordReply{Record: rec})
}

func (s *GRPCServer) Delete(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in rpc.DeleteRequest
	if err := rpc.Decode(req, &in); err != nil {
		return nil, badRequest(err)
	}
	if err := s.records.Delete(ctx, userID, in.Collection, in.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var q models.Query
	if err := rpc.Decode(req, &q); err != nil {
		return nil, badRequest(err)
	}
	rows, err := s.records.Query(ctx, userID, q)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return rpc.Encode(rpc.QueryReply{Rows: rows})
}

func (s *GRPCServer) Export(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.exports.Export(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Export ready", "user_id", userID, "key", res.Key)

	return rpc.Encode(rpc.ExportReply{
		URL:       res.URL,
		Key:       res.Key,
		Entries:   res.Entries,
		Todos:     res.Todos,
		ExpiresAt: res.ExpiresAt,
	})
}
