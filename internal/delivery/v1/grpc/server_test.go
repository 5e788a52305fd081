package grpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func servingStatus(t *testing.T, s *GRPCServer) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	res, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return res.GetStatus()
}

func TestGRPCServer_NotServingUntilProbesPass(t *testing.T) {
	s := NewGRPCServer(&cfg.GRPCConfig{Port: "0", NetworkMode: "tcp"}, logger.Nop())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, s))

	s.SetServing(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, s))
}

func TestGRPCServer_MonitorDependencies(t *testing.T) {
	s := NewGRPCServer(&cfg.GRPCConfig{Port: "0", NetworkMode: "tcp"}, logger.Nop())

	var healthy atomic.Bool
	probe := Probe{Name: "postgres", Check: func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("connection refused")
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.MonitorDependencies(ctx, 10*time.Millisecond, probe)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, s))

	healthy.Store(true)
	assert.Eventually(t, func() bool {
		return servingStatus(t, s) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	healthy.Store(false)
	assert.Eventually(t, func() bool {
		return servingStatus(t, s) == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after context cancel")
	}
}

func TestGRPCServer_StopWithoutStart(t *testing.T) {
	s := NewGRPCServer(&cfg.GRPCConfig{Port: "0", NetworkMode: "tcp"}, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))
}
