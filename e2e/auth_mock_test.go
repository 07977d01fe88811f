//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"

	authpb "github.com/vibast-solutions/ms-go-auth/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const gatewayAuthMockAddr = "0.0.0.0:38086"

var apiKeyDefaults = map[string]string{
	"CARDGATEWAY_CALLER_API_KEY":    "cardgateway-caller-key",
	"CARDGATEWAY_NO_ACCESS_API_KEY": "cardgateway-no-access-key",
	"CARDGATEWAY_APP_API_KEY":       "cardgateway-app-api-key",
}

func apiKeyFromEnv(name string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return apiKeyDefaults[name]
}

// gatewayCallerAPIKey belongs to the storefront admin allowed to call the card gateway.
func gatewayCallerAPIKey() string { return apiKeyFromEnv("CARDGATEWAY_CALLER_API_KEY") }

func gatewayNoAccessAPIKey() string { return apiKeyFromEnv("CARDGATEWAY_NO_ACCESS_API_KEY") }

// gatewayAppAPIKey is the key the card gateway itself presents to the auth service.
func gatewayAppAPIKey() string { return apiKeyFromEnv("CARDGATEWAY_APP_API_KEY") }

type gatewayAuthGRPCServer struct {
	authpb.UnimplementedAuthServiceServer
}

func (s *gatewayAuthGRPCServer) ValidateInternalAccess(ctx context.Context, req *authpb.ValidateInternalAccessRequest) (*authpb.ValidateInternalAccessResponse, error) {
	if incomingAPIKey(ctx) != gatewayAppAPIKey() {
		return nil, status.Error(codes.Unauthenticated, "unauthorized caller")
	}

	access := map[string][]string{
		gatewayCallerAPIKey():   {"cardgateway-service", "notifications-service"},
		gatewayNoAccessAPIKey(): {"notifications-service"},
	}
	allowed, ok := access[strings.TrimSpace(req.GetApiKey())]
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "invalid api key")
	}
	return &authpb.ValidateInternalAccessResponse{
		ServiceName:   "storefront-admin",
		AllowedAccess: allowed,
	}, nil
}

func incomingAPIKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get("x-api-key"); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func TestMain(m *testing.M) {
	for name, value := range apiKeyDefaults {
		if os.Getenv(name) == "" {
			_ = os.Setenv(name, value)
		}
	}

	listener, err := net.Listen("tcp", gatewayAuthMockAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start cardgateway auth grpc mock: %v\n", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, &gatewayAuthGRPCServer{})
	go func() {
		_ = grpcServer.Serve(listener)
	}()

	exitCode := m.Run()

	grpcServer.GracefulStop()
	_ = listener.Close()
	os.Exit(exitCode)
}
