package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierExclusivity(t *testing.T) {
	t.Run("nhs number clears postcode", func(t *testing.T) {
		p := New()
		p.SetPostcode("SW1A 1AA")
		p.SetNHSNumber("9998880009")

		assert.Equal(t, "9998880009", p.NHSNumber)
		assert.Empty(t, p.Postcode)
	})

	t.Run("postcode clears nhs number", func(t *testing.T) {
		p := New()
		p.SetNHSNumber("9998880009")
		p.SetPostcode("SW1A 1AA")

		assert.Equal(t, "SW1A 1AA", p.Postcode)
		assert.Empty(t, p.NHSNumber)
	})

	t.Run("never both set across any sequence", func(t *testing.T) {
		p := New()
		for i := range 10 {
			if i%3 == 0 {
				p.SetPostcode("LS1 4AP")
			} else {
				p.SetNHSNumber("9998880009")
			}
			assert.False(t, p.NHSNumber != "" && p.Postcode != "", "step %d", i)
		}
	})
}

func TestIdentityComplete(t *testing.T) {
	p := New()
	assert.False(t, p.IdentityComplete())

	p.FirstName, p.LastName = "Ada", "Lovelace"
	p.DOB = &DateOfBirth{Day: 10, Month: 12, Year: 1985}
	assert.False(t, p.IdentityComplete())

	p.SetPostcode("LS1 4AP")
	assert.True(t, p.IdentityComplete())
}

func TestDeadline(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New()

	d := p.StartDeadline(now, 30*time.Second)
	assert.Equal(t, now.Add(30*time.Second), d)

	// A pending deadline is not moved by later visits.
	d = p.StartDeadline(now.Add(10*time.Second), 30*time.Second)
	assert.Equal(t, now.Add(30*time.Second), d)

	assert.False(t, p.DeadlinePassed(now.Add(29*time.Second)))
	assert.True(t, p.DeadlinePassed(now.Add(30*time.Second)))

	p.ClearDeadline()
	assert.Nil(t, p.Deadline)
	assert.False(t, p.DeadlinePassed(now.Add(time.Hour)))
}

func TestClone(t *testing.T) {
	now := time.Now()
	p := New()
	p.DOB = &DateOfBirth{Day: 1, Month: 2, Year: 1990}
	p.StartDeadline(now, time.Second)

	c := p.Clone()
	require.NotNil(t, c)
	c.DOB.Year = 2000
	*c.Deadline = now.Add(time.Hour)

	assert.Equal(t, 1990, p.DOB.Year)
	assert.Equal(t, now.Add(time.Second), *p.Deadline)
}
