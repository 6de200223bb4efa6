package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gidx/cmd/cli/repos"
	"github.com/temirov/gidx/internal/catalog"
	"github.com/temirov/gidx/internal/index"
	"github.com/temirov/gidx/internal/permission"
	pathutils "github.com/temirov/gidx/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/tester"

func testHomeExpander() *pathutils.HomeExpander {
	return pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return testHomeDirectoryConstant, nil
	})
}

func newTestStore(testInstance *testing.T) *index.Store {
	testInstance.Helper()

	store, storeError := index.NewInMemoryStore(zap.NewNop())
	require.NoError(testInstance, storeError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, store.Close())
	})
	return store
}

func seedEntry(testInstance *testing.T, store *index.Store, entry catalog.Entry) {
	testInstance.Helper()

	_, upsertError := store.Upsert(context.Background(), entry)
	require.NoError(testInstance, upsertError)
}

func storeProviderFor(store *index.Store) repos.StoreProvider {
	return func() (*index.Store, error) { return store, nil }
}

func testGates(testInstance *testing.T) (*permission.Gate, *permission.Gate) {
	testInstance.Helper()

	interactiveGate, interactiveError := permission.NewGateWithHomeExpander(
		permission.LevelCommit,
		[]permission.Override{{Pattern: "~/vendor/**", Level: permission.LevelReadonly}},
		testHomeExpander(),
	)
	require.NoError(testInstance, interactiveError)

	automatedGate, automatedError := permission.NewGateWithHomeExpander(
		permission.LevelReadonly,
		nil,
		testHomeExpander(),
	)
	require.NoError(testInstance, automatedError)

	return interactiveGate, automatedGate
}

func timePointer(value time.Time) *time.Time {
	return &value
}

func seedListFixtures(testInstance *testing.T, store *index.Store) {
	testInstance.Helper()

	seedEntry(testInstance, store, catalog.Entry{
		Name:  "gadget",
		Path:  testHomeDirectoryConstant + "/code/gadget",
		Dirty: true,
		Remotes: []catalog.Remote{
			{Name: catalog.OriginRemoteNameConstant, URL: "git@github.com:acme/gadget.git"},
		},
		LastCommit: timePointer(time.Now().Add(-time.Hour)),
	})
	seedEntry(testInstance, store, catalog.Entry{
		Name:       "widget",
		Path:       testHomeDirectoryConstant + "/code/widget",
		AheadCount: 2,
		Remotes: []catalog.Remote{
			{Name: catalog.OriginRemoteNameConstant, URL: "https://github.com/acme/widget"},
		},
	})
	seedEntry(testInstance, store, catalog.Entry{
		Name: "scratch",
		Path: testHomeDirectoryConstant + "/tmp/scratch",
	})
	seedEntry(testInstance, store, catalog.Entry{
		Name:  "ghost",
		Path:  testHomeDirectoryConstant + "/code/ghost",
		State: catalog.StateLost,
	})
}
