package grpc

import (
	"context"
	"crypto/subtle"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// authenticate checks the admin credentials carried in the incoming metadata.
func (s *AdminServer) authenticate(ctx context.Context) error {
	md, _ := metadata.FromIncomingContext(ctx)
	user := firstValue(md, common.AdminUserHeaderName)
	password := firstValue(md, common.AdminPasswordHeaderName)
	if user == "" || password == "" {
		return status.Error(codes.Unauthenticated, "missing credentials")
	}

	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) == 1
	passwordOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	if !userOK || !passwordOK {
		s.logger.Warn(ctx, "rejected admin credentials", "user", user)
		return status.Error(codes.Unauthenticated, "invalid credentials")
	}
	return nil
}

func (s *AdminServer) credentialsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func (s *AdminServer) credentialsStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if err := s.authenticate(ss.Context()); err != nil {
		return err
	}
	return handler(srv, ss)
}
