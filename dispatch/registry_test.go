package dispatch

import (
	"testing"

	"github.com/ruteri/tee-workorder-service/contracts"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"echo", "intkey"}, r.Contracts())
	assert.Equal(t, []string{"echo-result:"}, r.WorkOrders())

	factory, err := r.ResolveContract("0,100:intkey")
	require.NoError(t, err)
	_, ok := factory().(*contracts.BoundedCounter)
	assert.True(t, ok)

	factory, err = r.ResolveContract(":echo")
	require.NoError(t, err)
	_, ok = factory().(*contracts.Echo)
	assert.True(t, ok)

	interp, err := r.ResolveWorkOrder("echo-result:anything")
	require.NoError(t, err)
	_, ok = interp().(*contracts.EchoResult)
	assert.True(t, ok)
}

func TestResolveErrors(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		wantErr    error
	}{
		{name: "unknown engine", identifier: "nosuch:engine", wantErr: interfaces.ErrNotFound},
		{name: "no separator", identifier: "intkey", wantErr: interfaces.ErrCode},
		{name: "two separators", identifier: "a:b:intkey", wantErr: interfaces.ErrCode},
		{name: "engine is case sensitive", identifier: "0,1:IntKey", wantErr: interfaces.ErrNotFound},
		{name: "empty", identifier: "", wantErr: interfaces.ErrCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.identifier)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = r.ResolveWorkOrder("echo:x")
	require.ErrorIs(t, err, interfaces.ErrNotFound)
	_, err = r.ResolveWorkOrder("echo-result")
	require.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestResolvePrefersWorkOrders(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	target, err := r.Resolve("echo-result:payload")
	require.NoError(t, err)
	assert.NotNil(t, target.Interpreter)
	assert.Nil(t, target.Executor)
	assert.Equal(t, "echo-result:payload", target.Code)

	target, err = r.Resolve("0,100:intkey")
	require.NoError(t, err)
	assert.Nil(t, target.Interpreter)
	assert.NotNil(t, target.Executor)
	assert.Equal(t, "0,100", target.Code)
}

func TestBuilderErrors(t *testing.T) {
	_, err := NewBuilder().Build()
	require.ErrorIs(t, err, ErrEmptyRegistry)

	_, err = NewBuilder().
		RegisterContract("intkey", contracts.NewBoundedCounter).
		RegisterContract("intkey", contracts.NewEcho).
		Build()
	require.ErrorIs(t, err, ErrDuplicateIdentifier)

	_, err = NewBuilder().RegisterContract("", contracts.NewEcho).Build()
	require.ErrorIs(t, err, ErrEmptyIdentifier)

	_, err = NewBuilder().RegisterContract("echo", nil).Build()
	require.ErrorIs(t, err, ErrNilFactory)

	_, err = NewBuilder().RegisterWorkOrder("echo-result", contracts.NewEchoResult).Build()
	require.Error(t, err)

	_, err = NewBuilder().
		RegisterWorkOrder("echo-result:", contracts.NewEchoResult).
		RegisterWorkOrder("echo-result:", contracts.NewEchoResult).
		Build()
	require.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestBuildIsolatesRegistry(t *testing.T) {
	b := NewBuilder().RegisterContract("echo", contracts.NewEcho)
	r, err := b.Build()
	require.NoError(t, err)

	b.RegisterContract("intkey", contracts.NewBoundedCounter)
	_, err = r.ResolveContract("x:intkey")
	require.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestConcurrentResolve(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_, _ = r.Resolve("0,100:intkey")
				_, _ = r.Resolve("echo-result:x")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
