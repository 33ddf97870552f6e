package cmd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/cmd"
	"github.com/replaykit/replaykit/pkg/log"
	"github.com/replaykit/replaykit/pkg/persistence/file"
	"github.com/replaykit/replaykit/pkg/persistence/redis"
)

func TestNewRegistry_NativeFactories(t *testing.T) {
	t.Parallel()

	reg, err := cmd.NewRegistry(log.Discard(), "")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"dryrun"}, reg.AvailableDrivers())
	assert.ElementsMatch(t, []string{"heuristic", "heuristic-exact"}, reg.AvailableScorers())

	driver, err := reg.CreateDriver("dryrun", nil)
	require.NoError(t, err)
	assert.NotNil(t, driver)

	scorer, err := reg.CreateScorer("heuristic-exact", nil)
	require.NoError(t, err)
	assert.NotNil(t, scorer)
}

func TestNewPersistence_ProviderSelection(t *testing.T) {
	t.Parallel()

	fileStore, err := cmd.NewPersistence(t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, fileStore)

	fileStore, err = cmd.NewPersistence("file://" + t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, fileStore)

	redisStore, err := cmd.NewPersistence("redis://localhost:6379")
	require.NoError(t, err)
	assert.IsType(t, &redis.Persistence{}, redisStore)

	_, err = cmd.NewPersistence("redis://bad\x00url")
	assert.Error(t, err)
}
