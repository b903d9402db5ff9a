package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/logging"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/dmitrijs2005/afterlog/internal/rpc"
	"github.com/dmitrijs2005/afterlog/internal/server/auth"
	"github.com/dmitrijs2005/afterlog/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const secret = "secret"

type fakeUsers struct {
	pair      *services.TokenPair
	err       error
	mu        sync.Mutex
	signedOut []string
	lastEmail string
}

func (f *fakeUsers) SignUp(ctx context.Context, email, password string) (*services.TokenPair, error) {
	f.mu.Lock()
	f.lastEmail = email
	f.mu.Unlock()
	return f.pair, f.err
}

func (f *fakeUsers) SignIn(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeUsers) Refresh(ctx context.Context, token string) (*services.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeUsers) SignOut(ctx context.Context, token string) error {
	f.mu.Lock()
	f.signedOut = append(f.signedOut, token)
	f.mu.Unlock()
	return f.err
}

type fakeRecords struct {
	mu      sync.Mutex
	userIDs []string
	query   models.Query
	err     error
}

func (f *fakeRecords) seen(userID string) {
	f.mu.Lock()
	f.userIDs = append(f.userIDs, userID)
	f.mu.Unlock()
}

func (f *fakeRecords) Insert(ctx context.Context, userID, collection string, rec models.Record) (models.Record, error) {
	f.seen(userID)
	if f.err != nil {
		return nil, f.err
	}
	out := rec.Clone()
	out[models.ColID] = "id-1"
	return out, nil
}

func (f *fakeRecords) Update(ctx context.Context, userID, collection, id string, patch models.Record) (models.Record, error) {
	f.seen(userID)
	if f.err != nil {
		return nil, f.err
	}
	out := patch.Clone()
	out[models.ColID] = id
	return out, nil
}

func (f *fakeRecords) Delete(ctx context.Context, userID, collection, id string) error {
	f.seen(userID)
	return f.err
}

func (f *fakeRecords) Query(ctx context.Context, userID string, q models.Query) ([]models.Record, error) {
	f.seen(userID)
	f.mu.Lock()
	f.query = q
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []models.Record{{"id": "a", "tags": []any{"x"}}, {"id": "b", "mood": nil}}, nil
}

type fakeExports struct{ err error }

func (f *fakeExports) Export(ctx context.Context, userID string) (*services.ExportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.ExportResult{URL: "https://s3.local/x", Key: "exports/" + userID, Entries: 2, Todos: 1}, nil
}

func startServer(t *testing.T, us UserService, rs RecordService, es ExportService) *rpc.Client {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewGRPCServer(lis.Addr().String(), logging.Nop{}, us, rs, es, secret)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return rpc.NewClient(conn)
}

func authed(t *testing.T, userID string) context.Context {
	t.Helper()
	token, _, err := auth.GenerateToken(userID, "a@b.c", []byte(secret), time.Minute)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

func TestAuthHandlers(t *testing.T) {
	users := &fakeUsers{pair: &services.TokenPair{
		AccessToken: "at", RefreshToken: "rt", UserID: "u1", Email: "ann@example.com",
		ExpiresAt: time.Date(2026, 10, 16, 12, 15, 0, 0, time.UTC),
	}}
	c := startServer(t, users, &fakeRecords{}, &fakeExports{})
	ctx := context.Background()

	in, err := rpc.Encode(rpc.Credentials{Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	out, err := c.SignUp(ctx, in)
	require.NoError(t, err)
	var sess rpc.Session
	require.NoError(t, rpc.Decode(out, &sess))
	assert.Equal(t, "at", sess.AccessToken)
	assert.Equal(t, "rt", sess.RefreshToken)
	assert.Equal(t, "u1", sess.UserID)
	assert.True(t, sess.ExpiresAt.Equal(users.pair.ExpiresAt))

	users.mu.Lock()
	assert.Equal(t, "ann@example.com", users.lastEmail)
	users.mu.Unlock()

	rt, err := rpc.Encode(rpc.RefreshRequest{RefreshToken: "rt"})
	require.NoError(t, err)
	_, err = c.SignOut(ctx, rt)
	require.NoError(t, err)
	users.mu.Lock()
	assert.Equal(t, []string{"rt"}, users.signedOut)
	users.mu.Unlock()

	_, err = c.Ping(ctx, &emptypb.Empty{})
	require.NoError(t, err)
}

func TestAuthHandlers_ErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{common.ErrInvalidCredentials, codes.Unauthenticated, "invalid login credentials"},
		{common.ErrRateLimited, codes.ResourceExhausted, "email rate limit exceeded"},
		{common.ErrEmailTaken, codes.AlreadyExists, "user already registered"},
		{common.ErrWeakPassword, codes.InvalidArgument, "password should be at least 6 characters"},
		{common.ErrRefreshTokenExpired, codes.Unauthenticated, "refresh token expired"},
		{errors.New("pq: connection reset"), codes.Internal, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			c := startServer(t, &fakeUsers{err: tc.err}, &fakeRecords{}, &fakeExports{})
			in, err := rpc.Encode(rpc.Credentials{Email: "a@b.c", Password: "x"})
			require.NoError(t, err)

			_, err = c.SignIn(context.Background(), in)
			st := status.Convert(err)
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.msg, st.Message())
		})
	}
}

func TestDataHandlers_RequireToken(t *testing.T) {
	c := startServer(t, &fakeUsers{}, &fakeRecords{}, &fakeExports{})

	q, err := rpc.Encode(models.From(models.CollectionTodos))
	require.NoError(t, err)
	_, err = c.Query(context.Background(), q)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.Export(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestDataHandlers_RoundTrip(t *testing.T) {
	recs := &fakeRecords{}
	c := startServer(t, &fakeUsers{}, recs, &fakeExports{})
	ctx := authed(t, "u1")

	in, err := rpc.Encode(rpc.InsertRequest{Collection: models.CollectionTodos, Record: models.Record{"content": "milk"}})
	require.NoError(t, err)
	out, err := c.Insert(ctx, in)
	require.NoError(t, err)
	var rr rpc.RecordReply
	require.NoError(t, rpc.Decode(out, &rr))
	assert.Equal(t, models.Record{"content": "milk", "id": "id-1"}, rr.Record)

	up, err := rpc.Encode(rpc.UpdateRequest{Collection: models.CollectionTodos, ID: "id-1", Patch: models.Record{"completed": true}})
	require.NoError(t, err)
	out, err = c.Update(ctx, up)
	require.NoError(t, err)
	require.NoError(t, rpc.Decode(out, &rr))
	assert.Equal(t, true, rr.Record["completed"])

	del, err := rpc.Encode(rpc.DeleteRequest{Collection: models.CollectionTodos, ID: "id-1"})
	require.NoError(t, err)
	_, err = c.Delete(ctx, del)
	require.NoError(t, err)

	query := models.From(models.CollectionJournal).
		Where(models.Gte(models.ColEntryDate, "2026-10-14")).
		OrderBy(models.ColCreatedAt, true).
		Window(10, 20)
	qs, err := rpc.Encode(query)
	require.NoError(t, err)
	out, err = c.Query(ctx, qs)
	require.NoError(t, err)
	var qr rpc.QueryReply
	require.NoError(t, rpc.Decode(out, &qr))
	assert.Len(t, qr.Rows, 2)
	assert.Equal(t, []any{"x"}, qr.Rows[0]["tags"])
	assert.Contains(t, qr.Rows[1], "mood")

	recs.mu.Lock()
	assert.Equal(t, query, recs.query)
	assert.Equal(t, []string{"u1", "u1", "u1", "u1"}, recs.userIDs)
	recs.mu.Unlock()

	out, err = c.Export(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	var er rpc.ExportReply
	require.NoError(t, rpc.Decode(out, &er))
	assert.Equal(t, "https://s3.local/x", er.URL)
	assert.Equal(t, "exports/u1", er.Key)
	assert.Equal(t, 2, er.Entries)
}

func TestDataHandlers_ErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrorNotFound, codes.NotFound},
		{common.ErrorForbidden, codes.PermissionDenied},
		{common.ErrUnknownColumn, codes.InvalidArgument},
		{common.ErrInvalidValue, codes.InvalidArgument},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			c := startServer(t, &fakeUsers{}, &fakeRecords{err: tc.err}, &fakeExports{err: tc.err})
			ctx := authed(t, "u1")

			del, err := rpc.Encode(rpc.DeleteRequest{Collection: models.CollectionTodos, ID: "x"})
			require.NoError(t, err)
			_, err = c.Delete(ctx, del)
			assert.Equal(t, tc.code, status.Code(err))

			_, err = c.Export(ctx, &emptypb.Empty{})
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}
