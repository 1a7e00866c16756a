package memory

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
)

func TestTable_GetSet(t *testing.T) {
	tab := NewTable[record.Grade]()
	key := PeriodKey(uuid.New(), account.FeatureGrades, "Trimestre 1")

	_, ok := tab.Get(key)
	assert.False(t, ok)

	tab.Set(key, []record.Grade{{ID: "g1"}})
	got, ok := tab.Get(key)
	assert.True(t, ok)
	assert.Len(t, got, 1)

	// wholesale replace, no merge
	tab.Set(key, []record.Grade{{ID: "g2"}, {ID: "g3"}})
	got, _ = tab.Get(key)
	assert.Len(t, got, 2)
	assert.Equal(t, "g2", got[0].ID)
}

func TestTable_EmptyListIsAValue(t *testing.T) {
	tab := NewTable[record.Homework]()
	key := WeekKey(uuid.New(), account.FeatureHomework, 2900)

	tab.Set(key, []record.Homework{})
	got, ok := tab.Get(key)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestTable_SetIfNewer(t *testing.T) {
	tab := NewTable[record.Lesson]()
	key := WeekKey(uuid.New(), account.FeatureTimetable, 2901)

	first := tab.Begin(key)
	second := tab.Begin(key)

	// the later-issued refresh completes first
	assert.True(t, tab.SetIfNewer(key, second, []record.Lesson{{ID: "new"}}))
	// the earlier-issued one resolves afterwards and must lose
	assert.False(t, tab.SetIfNewer(key, first, []record.Lesson{{ID: "stale"}}))

	got, _ := tab.Get(key)
	assert.Equal(t, "new", got[0].ID)
}

func TestTable_PlainSetIsLastWriteWins(t *testing.T) {
	tab := NewTable[record.Lesson]()
	key := WeekKey(uuid.New(), account.FeatureTimetable, 2902)

	tab.Set(key, []record.Lesson{{ID: "a"}})
	tab.Set(key, []record.Lesson{{ID: "b"}})
	got, _ := tab.Get(key)
	assert.Equal(t, "b", got[0].ID)
}

func TestTable_ConcurrentWriters(t *testing.T) {
	tab := NewTable[record.Grade]()
	key := PeriodKey(uuid.New(), account.FeatureGrades, "S1")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tab.Set(key, []record.Grade{{ID: "x"}})
			tab.Get(key)
		}()
	}
	wg.Wait()

	got, ok := tab.Get(key)
	assert.True(t, ok)
	assert.Len(t, got, 1)
}

func TestTable_DumpRestore(t *testing.T) {
	tab := NewTable[record.Grade]()
	k1 := PeriodKey(uuid.New(), account.FeatureGrades, "T1")
	k2 := PeriodKey(uuid.New(), account.FeatureGrades, "T2")
	tab.Set(k1, []record.Grade{{ID: "a"}})
	tab.Set(k2, []record.Grade{{ID: "b"}})

	dump := tab.Dump()
	assert.Len(t, dump, 2)

	fresh := NewTable[record.Grade]()
	fresh.Set(k2, []record.Grade{{ID: "newer"}})
	fresh.Restore(dump)

	got, _ := fresh.Get(k1)
	assert.Equal(t, "a", got[0].ID)
	// live entries win over restored ones
	got, _ = fresh.Get(k2)
	assert.Equal(t, "newer", got[0].ID)
}

func TestKeyString(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t,
		"11111111-2222-3333-4444-555555555555:timetable:w2900",
		WeekKey(id, account.FeatureTimetable, 2900).String())
	assert.Equal(t,
		"11111111-2222-3333-4444-555555555555:grades:pT1",
		PeriodKey(id, account.FeatureGrades, "T1").String())
}

func TestCacheStore_Periods(t *testing.T) {
	store := NewCacheStore()
	acct := uuid.New()

	_, ok := store.Periods(acct)
	assert.False(t, ok)

	store.SetPeriods(acct, []record.Period{
		{Name: "Trimestre 1"},
		{Name: "Trimestre 2"},
	}, "Trimestre 2")

	list, ok := store.Periods(acct)
	assert.True(t, ok)
	def, ok := list.Default()
	assert.True(t, ok)
	assert.Equal(t, "Trimestre 2", def.Name)
}
