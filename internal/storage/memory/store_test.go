package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/storage"
)

func testRecord(email string, submitDate time.Time) *domain.ContactRecord {
	return &domain.ContactRecord{
		Email:      email,
		Site:       "example.com",
		SubmitDate: submitDate,
		IPAddress:  "198.51.100.7",
	}
}

func TestStore_CreateContact(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.CreateContact(testRecord("jane.bloggs@example.com", now)))

	got, err := store.GetContact("jane.bloggs@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane.bloggs@example.com", got.Email)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_CreateContactDuplicate(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.CreateContact(testRecord("jane.bloggs@example.com", now)))

	// second registration for the same address fails even with a
	// different submit date or letter case
	err := store.CreateContact(testRecord("jane.bloggs@example.com", now.Add(time.Hour)))
	assert.ErrorIs(t, err, storage.ErrContactExists)

	err = store.CreateContact(testRecord("Jane.Bloggs@example.com", now))
	assert.ErrorIs(t, err, storage.ErrContactExists)
}

func TestStore_CreateContactConcurrent(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC().Truncate(time.Second)

	// exactly one of the racing registrations may win
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateContact(testRecord("jane.bloggs@example.com", now))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		if err == nil {
			ok++
		} else if assert.ErrorIs(t, err, storage.ErrContactExists) {
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, dup)
}

func TestStore_ContactExists(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.CreateContact(testRecord("jane.bloggs@example.com", now)))

	exists, err := store.ContactExists("jane.bloggs@example.com", now)
	require.NoError(t, err)
	assert.True(t, exists)

	// a different submit date is a different submission
	exists, err = store.ContactExists("jane.bloggs@example.com", now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.ContactExists("nobody@example.com", now)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ListContacts(t *testing.T) {
	store := NewStore()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		record := testRecord(fmt.Sprintf("user%d@example.com", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.CreateContact(record))
	}

	page, total, err := store.ListContacts(1, 2, time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)

	// newest first
	assert.Equal(t, "user4@example.com", page[0].Email)
	assert.Equal(t, "user3@example.com", page[1].Email)

	last, _, err := store.ListContacts(3, 2, time.Time{})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "user0@example.com", last[0].Email)

	empty, _, err := store.ListContacts(4, 2, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	// since filter drops older records
	recent, recentTotal, err := store.ListContacts(1, 10, base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, recentTotal)
	require.Len(t, recent, 2)
	assert.Equal(t, "user4@example.com", recent[0].Email)
}

func TestStore_Users(t *testing.T) {
	store := NewStore()
	user := &domain.User{
		ID:       "u-1",
		Email:    "admin@example.com",
		Username: "admin",
		Role:     domain.RoleAdmin,
		IsActive: true,
	}
	require.NoError(t, store.CreateUser(user))

	assert.ErrorIs(t, store.CreateUser(&domain.User{ID: "u-2", Email: "Admin@example.com"}), storage.ErrUserExists)

	byEmail, err := store.GetUserByEmail("admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)

	byName, err := store.GetUserByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byName.ID)

	require.NoError(t, store.UpdateLastLogin("u-1"))
	updated, err := store.GetUserByID("u-1")
	require.NoError(t, err)
	assert.NotNil(t, updated.LastLoginAt)

	_, err = store.GetUserByID("missing")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
