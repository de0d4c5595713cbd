package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/der-cain/npc-town/internal/world"
)

func TestSpawnWorker_RestsAtHome(t *testing.T) {
	f := newFixture(t, 0.05)
	s := NewSpawner(f.env)

	a, err := s.SpawnWorker(RoleProducer)
	require.NoError(t, err)

	assert.Equal(t, AgentID(1), a.ID)
	assert.Equal(t, KindResting, a.State().Kind())
	assert.Equal(t, f.env.Map.Point(world.KeyWinemakerHome), a.Position())
	assert.Equal(t, world.KeyWinemakerWorkPos, a.WorkKey)
	assert.NotEmpty(t, a.Name)

	_, err = s.SpawnWorker(RoleCustomer)
	assert.Error(t, err)
}

func TestSpawnCustomer_HeadsForShop(t *testing.T) {
	f := newFixture(t, 0.3)
	s := NewSpawner(f.env)
	s.SetNextID(40)

	c, err := s.SpawnCustomer()
	require.NoError(t, err)

	assert.Equal(t, AgentID(40), c.ID)
	p, ok := movingPurpose(c)
	require.True(t, ok)
	assert.Equal(t, PurposeEnteringShop, p)
}

func TestCustomerSpawner_Gates(t *testing.T) {
	cfg := DefaultCustomerConfig()
	require.NoError(t, cfg.Validate())

	t.Run("closed before opening", func(t *testing.T) {
		f := newFixture(t, 0.1)
		cs := NewCustomerSpawner(cfg, NewSpawner(f.env))

		a, err := cs.Tick(cfg.Interval, 0)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("waits for the interval", func(t *testing.T) {
		f := newFixture(t, 0.3)
		cs := NewCustomerSpawner(cfg, NewSpawner(f.env))

		a, err := cs.Tick(cfg.Interval-time.Millisecond, 0)
		require.NoError(t, err)
		assert.Nil(t, a)

		a, err = cs.Tick(time.Millisecond, 0)
		require.NoError(t, err)
		assert.NotNil(t, a)
	})

	t.Run("respects the limit", func(t *testing.T) {
		f := newFixture(t, 0.3)
		cs := NewCustomerSpawner(cfg, NewSpawner(f.env))

		a, err := cs.Tick(cfg.Interval, cfg.MaxConcurrent)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("random gate", func(t *testing.T) {
		f := newFixture(t, 0.3)
		f.rng.f = 0.99
		cs := NewCustomerSpawner(cfg, NewSpawner(f.env))

		a, err := cs.Tick(cfg.Interval, 0)
		require.NoError(t, err)
		assert.Nil(t, a)
	})
}

func TestSweep_RemovesDespawned(t *testing.T) {
	f := newFixture(t, 0.3)
	s := NewSpawner(f.env)
	keep, err := s.SpawnCustomer()
	require.NoError(t, err)
	gone, err := s.SpawnCustomer()
	require.NoError(t, err)
	gone.ChangeState(NewDespawned())

	kept, removed := Sweep([]*Agent{keep, gone})

	assert.Equal(t, 1, removed)
	assert.Equal(t, []*Agent{keep}, kept)
	assert.False(t, gone.active)
}

func TestCustomerConfig_Validate(t *testing.T) {
	cfg := DefaultCustomerConfig()
	cfg.OpenUntil = cfg.OpenFrom
	assert.Error(t, cfg.Validate())

	cfg = DefaultCustomerConfig()
	cfg.Chance = 2
	assert.Error(t, cfg.Validate())
}
