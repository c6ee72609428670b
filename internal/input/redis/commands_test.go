package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleids/internal/attack"
)

type scriptedPopper struct {
	mu       sync.Mutex
	messages [][]byte
	errs     []error
}

func (p *scriptedPopper) Pop(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return nil, err
	}
	if len(p.messages) == 0 {
		return nil, nil
	}
	msg := p.messages[0]
	p.messages = p.messages[1:]
	return msg, nil
}

func (p *scriptedPopper) drained() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages) == 0 && len(p.errs) == 0
}

type recordingSetter struct {
	mu   sync.Mutex
	ctrl *attack.Controller
	raws []string
}

func (s *recordingSetter) SetAttackMode(raw string) (attack.Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raws = append(s.raws, raw)
	return s.ctrl.Set(raw)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"mode":"flood"}`))
	require.NoError(t, err)
	require.NotNil(t, cmd.Mode)
	assert.Equal(t, "flood", *cmd.Mode)

	cmd, err = ParseCommand([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, cmd.Mode)

	_, err = ParseCommand([]byte(`not json`))
	assert.Error(t, err)
}

func TestCommandLoopAppliesCommands(t *testing.T) {
	popper := &scriptedPopper{
		messages: [][]byte{
			[]byte(`{"mode":"gps_spoof"}`),
			[]byte(`garbage`),
			[]byte(`{"mode":"teleport"}`),
			[]byte(`{"mode":""}`),
			[]byte(`{"mode":"brake_spoof"}`),
		},
		errs: []error{errors.New("connection reset")},
	}
	setter := &recordingSetter{ctrl: attack.NewController()}
	loop := NewCommandLoop(popper, setter)
	loop.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	require.Eventually(t, popper.drained, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return setter.ctrl.Get() == attack.BrakeSpoof }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	setter.mu.Lock()
	defer setter.mu.Unlock()
	assert.Equal(t, []string{"gps_spoof", "teleport", "", "brake_spoof"}, setter.raws)
}

func TestCommandLoopMissingModeClears(t *testing.T) {
	setter := &recordingSetter{ctrl: attack.NewController()}
	_, err := setter.ctrl.Set("flood")
	require.NoError(t, err)
	loop := NewCommandLoop(&scriptedPopper{}, setter)

	loop.apply([]byte(`{"mode":""}`))
	assert.Equal(t, attack.Flood, setter.ctrl.Get())

	loop.apply([]byte(`{}`))
	assert.Equal(t, attack.None, setter.ctrl.Get())

	_, err = setter.ctrl.Set("lane_spoof")
	require.NoError(t, err)
	loop.apply([]byte(`{"mode":null}`))
	assert.Equal(t, attack.None, setter.ctrl.Get())
	assert.Equal(t, []string{"", "off", "off"}, setter.raws)
}

func TestNewConsumerRequiresKey(t *testing.T) {
	_, err := NewConsumer(Config{})
	assert.Error(t, err)

	c, err := NewConsumer(Config{Key: "vehicleids:commands"})
	require.NoError(t, err)
	assert.Equal(t, "vehicleids:commands", c.Key())
	assert.NoError(t, c.Close())
}
