package form

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-key-for-development-32-chars-long"
	testSalt   = "invite-salt"
	testWindow = 7320 * time.Second
)

func newTestForm() *ContactForm {
	return NewContactForm(testSecret, testSalt, testWindow, nil)
}

func bindTestForm(data url.Values) *ContactForm {
	return BindContactForm(testSecret, testSalt, testWindow, data)
}

func TestSecurityForm_Constructor(t *testing.T) {
	// timestamp and security_hash are computed during construction
	f := newTestForm()
	assert.NotEmpty(t, f.Initial.Timestamp)
	assert.NotEmpty(t, f.Initial.SecurityHash)

	// even though they were provided as initial data
	initial := url.Values{
		"timestamp":     {"1122334455"},
		"security_hash": {"blahblahashed"},
	}
	f = NewContactForm(testSecret, testSalt, testWindow, initial)
	assert.NotEqual(t, "1122334455", f.Initial.Timestamp)
	assert.NotEqual(t, "blahblahashed", f.Initial.SecurityHash)
}

func TestSecurityForm_HashDeterministic(t *testing.T) {
	f := newTestForm()
	other := newTestForm()

	// same secret/salt -> same hash; changing either input invalidates it
	ts := f.Initial.Timestamp
	assert.Equal(t, f.GenerateSecurityHash(ts, ""), other.GenerateSecurityHash(ts, ""))
	assert.NotEqual(t, f.GenerateSecurityHash(ts, ""), f.GenerateSecurityHash(ts+"1", ""))
	assert.NotEqual(t, f.GenerateSecurityHash(ts, ""), f.GenerateSecurityHash(ts, "gotcha"))
}

func TestSecurityForm_StaleTimestamp(t *testing.T) {
	// a timestamp more than the window old is not accepted,
	// even when its hash is valid
	f := newTestForm()
	issued, err := strconv.ParseInt(f.Initial.Timestamp, 10, 64)
	require.NoError(t, err)

	stale := strconv.FormatInt(issued-(2*60*61), 10)
	data := url.Values{
		"timestamp":     {stale},
		"security_hash": {f.GenerateSecurityHash(stale, "")},
	}

	secErr := bindTestForm(data).SecurityErrors()
	require.NotNil(t, secErr)
	assert.Equal(t, FieldTimestamp, secErr.Field)
}

func TestSecurityForm_MissingOrUnparsableTimestamp(t *testing.T) {
	secErr := bindTestForm(url.Values{}).SecurityErrors()
	require.NotNil(t, secErr)
	assert.Equal(t, FieldTimestamp, secErr.Field)

	secErr = bindTestForm(url.Values{"timestamp": {"not-a-number"}}).SecurityErrors()
	require.NotNil(t, secErr)
	assert.Equal(t, FieldTimestamp, secErr.Field)
}

func TestSecurityForm_TamperedHash(t *testing.T) {
	// changing the timestamp invalidates the issued security_hash
	f := newTestForm()
	now := strconv.FormatInt(time.Now().Unix(), 10)
	data := url.Values{
		"timestamp":     {now},
		"security_hash": {f.Initial.SecurityHash},
	}
	if now == f.Initial.Timestamp {
		data.Set("timestamp", strconv.FormatInt(time.Now().Unix()-1, 10))
	}

	secErr := bindTestForm(data).SecurityErrors()
	require.NotNil(t, secErr)
	assert.Equal(t, FieldSecurityHash, secErr.Field)
}

func TestSecurityForm_Honeypot(t *testing.T) {
	// a filled honeypot always fails, regardless of the other fields
	f := newTestForm()
	data := url.Values{
		"timestamp":     {f.Initial.Timestamp},
		"security_hash": {f.Initial.SecurityHash},
		"honeypot":      {"Oh! big mistake!"},
	}

	secErr := bindTestForm(data).SecurityErrors()
	require.NotNil(t, secErr)
	assert.Equal(t, FieldHoneypot, secErr.Field)
}

func TestContactForm_ValidSubmission(t *testing.T) {
	f := newTestForm()
	data := url.Values{
		"timestamp":     {f.Initial.Timestamp},
		"security_hash": {f.Initial.SecurityHash},
		"email":         {"jane.bloggs@example.com"},
	}

	bound := bindTestForm(data)
	assert.Nil(t, bound.SecurityErrors())
	require.True(t, bound.Valid())

	sub, err := bound.GetInstanceData()
	require.NoError(t, err)
	assert.Equal(t, "jane.bloggs@example.com", sub.Email)
	assert.WithinDuration(t, time.Now(), sub.SubmitDate, 5*time.Second)
}

func TestContactForm_EmailErrors(t *testing.T) {
	f := newTestForm()
	envelope := url.Values{
		"timestamp":     {f.Initial.Timestamp},
		"security_hash": {f.Initial.SecurityHash},
	}

	t.Run("empty email", func(t *testing.T) {
		data := url.Values{"email": {""}}
		for k, v := range envelope {
			data[k] = v
		}
		bound := bindTestForm(data)
		assert.Nil(t, bound.SecurityErrors())
		assert.False(t, bound.Valid())
		assert.Contains(t, bound.FieldErrors(), "email")
	})

	t.Run("malformed email", func(t *testing.T) {
		data := url.Values{"email": {"not-an-address"}}
		for k, v := range envelope {
			data[k] = v
		}
		bound := bindTestForm(data)
		assert.False(t, bound.Valid())
		assert.Contains(t, bound.FieldErrors(), "email")
	})
}

func TestContactForm_GetInstanceDataBeforeValidation(t *testing.T) {
	f := newTestForm()
	data := url.Values{
		"timestamp":     {f.Initial.Timestamp},
		"security_hash": {f.Initial.SecurityHash},
		"email":         {"jane.bloggs@example.com"},
	}

	// extracting data without validating first must fail loudly,
	// never return partial data
	bound := bindTestForm(data)
	_, err := bound.GetInstanceData()
	assert.ErrorIs(t, err, ErrNotValidated)

	// a failed validation must not unlock extraction either
	bad := bindTestForm(url.Values{"email": {""}})
	bad.Valid()
	_, err = bad.GetInstanceData()
	assert.ErrorIs(t, err, ErrNotValidated)
}
