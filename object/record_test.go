package object

import (
	"testing"

	"github.com/core-orm/coreql/corerr"
	"github.com/core-orm/coreql/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personEntity(t *testing.T) *model.Entity {
	t.Helper()
	e, err := model.NewEntityBuilder("Person").
		PrimaryKey("id").
		Attribute("id", model.TypeInt64, model.AutoIncrement()).
		Attribute("name", model.TypeString).
		Attribute("nickname", model.TypeString, model.Nullable()).
		Build()
	require.NoError(t, err)
	return e
}

func TestNew_IsNewWithNoGlobalID(t *testing.T) {
	rec := New(personEntity(t))
	assert.True(t, rec.IsNew())
	assert.Nil(t, rec.GlobalID())
	assert.False(t, rec.HasSnapshot())
}

func TestSetAndGet_RoundTrips(t *testing.T) {
	rec := New(personEntity(t))
	require.NoError(t, rec.Set("name", "Ada"))

	got, err := rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got)
}

func TestGet_UnknownAttributeErrorsConfiguration(t *testing.T) {
	rec := New(personEntity(t))
	_, err := rec.Get("bogus")
	assert.True(t, corerr.Is(err, corerr.ErrConfiguration))
}

func TestSet_NonNullableNilErrorsType(t *testing.T) {
	rec := New(personEntity(t))
	err := rec.Set("name", nil)
	assert.True(t, corerr.Is(err, corerr.ErrType))
}

func TestSet_NullableNilSucceeds(t *testing.T) {
	rec := New(personEntity(t))
	assert.NoError(t, rec.Set("nickname", nil))
}

func TestHooks_FireOnGetAndSet(t *testing.T) {
	rec := New(personEntity(t))
	var readSeen, changeSeen string
	rec.OnWillRead = func(attrName string) { readSeen = attrName }
	rec.OnWillChange = func(attrName string) error { changeSeen = attrName; return nil }

	require.NoError(t, rec.Set("name", "Grace"))
	assert.Equal(t, "name", changeSeen)

	_, err := rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "name", readSeen)
}

func TestHooks_WillChangeCanVeto(t *testing.T) {
	rec := New(personEntity(t))
	rec.OnWillChange = func(attrName string) error {
		return corerr.Lifecycle(nil, "frozen")
	}
	err := rec.Set("name", "Ada")
	assert.True(t, corerr.Is(err, corerr.ErrLifecycle))
}

func TestGlobalID_ReflectsPrimaryKeyOnceSet(t *testing.T) {
	rec := New(personEntity(t))
	assert.Nil(t, rec.GlobalID())

	require.NoError(t, rec.Set("id", int64(7)))
	id := rec.GlobalID()
	require.NotNil(t, id)
	assert.Equal(t, "Person", id.EntityName)
	assert.Equal(t, int64(7), id.Keys["id"])
}

func TestFromSnapshot_IsNotNewAndHoldsSnapshot(t *testing.T) {
	row := model.Snapshot{"id": int64(1), "name": "Ada", "nickname": model.NullValue}
	rec := FromSnapshot(personEntity(t), row)

	assert.False(t, rec.IsNew())
	assert.True(t, rec.HasSnapshot())

	name, err := rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	nickname, err := rec.Get("nickname")
	require.NoError(t, err)
	assert.Nil(t, nickname)
}

func TestRevert_RestoresSnapshotValues(t *testing.T) {
	row := model.Snapshot{"id": int64(1), "name": "Ada", "nickname": model.NullValue}
	rec := FromSnapshot(personEntity(t), row)
	require.NoError(t, rec.Set("name", "Changed"))

	require.NoError(t, rec.Revert())
	name, err := rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
}

func TestRevert_WithoutSnapshotErrorsLifecycle(t *testing.T) {
	rec := New(personEntity(t))
	err := rec.Revert()
	assert.True(t, corerr.Is(err, corerr.ErrLifecycle))
}

func TestChangesFromSnapshot_ReportsOnlyMutatedKeys(t *testing.T) {
	row := model.Snapshot{"id": int64(1), "name": "Ada", "nickname": model.NullValue}
	rec := FromSnapshot(personEntity(t), row)
	require.NoError(t, rec.Set("name", "Lovelace"))

	changes := rec.ChangesFromSnapshot(rec.Snapshot())
	require.Len(t, changes, 1)
	assert.Equal(t, "Lovelace", changes.Get("name"))
}

// TestRoundTrip_ChangesFromUpdateFromSnapshotIsEmpty is spec.md §8's
// testable property: O.changesFromSnapshot(O.updateFromSnapshot(S)) is
// empty.
func TestRoundTrip_ChangesFromUpdateFromSnapshotIsEmpty(t *testing.T) {
	rec := New(personEntity(t))
	require.NoError(t, rec.Set("name", "Stale"))

	s := model.Snapshot{"id": int64(5), "name": "Fresh", "nickname": model.NullValue}
	baseline := rec.UpdateFromSnapshot(s)

	changes := rec.ChangesFromSnapshot(baseline)
	assert.Empty(t, changes)
}

func TestAwakeFromFetch_InvokesCallback(t *testing.T) {
	rec := New(personEntity(t))
	var got any
	rec.OnAwakeFromFetch = func(db any) error { got = db; return nil }

	require.NoError(t, rec.AwakeFromFetch("the-db"))
	assert.Equal(t, "the-db", got)
}

func TestAwakeFromFetch_NoCallbackIsNoop(t *testing.T) {
	rec := New(personEntity(t))
	assert.NoError(t, rec.AwakeFromFetch(nil))
}

func TestValidateForInsert_RequiresNonNullableNoDefaultAttributes(t *testing.T) {
	rec := New(personEntity(t))
	err := rec.ValidateForInsert()
	assert.True(t, corerr.Is(err, corerr.ErrIntegrity))

	require.NoError(t, rec.Set("name", "Ada"))
	assert.NoError(t, rec.ValidateForInsert())
}

func TestValidateForInsert_AutoIncrementPrimaryKeyNotRequired(t *testing.T) {
	rec := New(personEntity(t))
	require.NoError(t, rec.Set("name", "Ada"))
	assert.NoError(t, rec.ValidateForInsert())
}

func TestValidateForUpdateAndDelete_RequireGlobalID(t *testing.T) {
	rec := New(personEntity(t))
	assert.True(t, corerr.Is(rec.ValidateForUpdate(), corerr.ErrLifecycle))
	assert.True(t, corerr.Is(rec.ValidateForDelete(), corerr.ErrLifecycle))

	require.NoError(t, rec.Set("id", int64(1)))
	assert.NoError(t, rec.ValidateForUpdate())
	assert.NoError(t, rec.ValidateForDelete())
}

func TestValidateForSave_DispatchesOnIsNew(t *testing.T) {
	rec := New(personEntity(t))
	assert.True(t, corerr.Is(rec.ValidateForSave(), corerr.ErrIntegrity))

	require.NoError(t, rec.Set("name", "Ada"))
	require.NoError(t, rec.Set("id", int64(1)))
	rec.MarkPersisted(nil)

	assert.NoError(t, rec.ValidateForSave())
}

func TestValidateForInsert_GeneratesUUIDDefault(t *testing.T) {
	e, err := model.NewEntityBuilder("Token").
		PrimaryKey("id").
		Attribute("id", model.TypeString, model.WithDefault(model.GenerateUUID)).
		Attribute("label", model.TypeString).
		Build()
	require.NoError(t, err)

	rec := New(e)
	require.NoError(t, rec.Set("label", "api-key"))
	require.NoError(t, rec.ValidateForInsert())

	id, err := rec.Get("id")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSetRelatedAndRelated_BypassesChangeTracking(t *testing.T) {
	rec := New(personEntity(t))
	var changeSeen bool
	rec.OnWillChange = func(attrName string) error { changeSeen = true; return nil }

	rec.SetRelated("addresses", []string{"a", "b"})
	got, ok := rec.Related("addresses")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.False(t, changeSeen, "SetRelated must not fire OnWillChange")
}

func TestValues_ReturnsOnlyPresentAttributesAsACopy(t *testing.T) {
	rec := New(personEntity(t))
	require.NoError(t, rec.Set("name", "Ada"))

	values := rec.Values()
	assert.Equal(t, map[string]any{"name": "Ada"}, values)

	values["name"] = "Mutated"
	got, err := rec.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got, "Values must return a copy, not the live map")
}

func TestRelated_MissingKeyIsMiss(t *testing.T) {
	rec := New(personEntity(t))
	_, ok := rec.Related("addresses")
	assert.False(t, ok)
}

// TestMarkPersisted_AutoIncrementInsert is spec.md §8 scenario 4:
// resultRow.id populated and non-zero, isNew == false afterwards.
func TestMarkPersisted_AutoIncrementInsert(t *testing.T) {
	rec := New(personEntity(t))
	require.NoError(t, rec.Set("name", "Ada"))
	require.NoError(t, rec.ValidateForInsert())

	rec.MarkPersisted(map[string]any{"id": int64(42)})

	assert.False(t, rec.IsNew())
	id := rec.GlobalID()
	require.NotNil(t, id)
	assert.Equal(t, int64(42), id.Keys["id"])
	assert.True(t, rec.HasSnapshot())
}
