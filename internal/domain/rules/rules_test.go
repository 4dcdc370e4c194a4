package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
"1052":
  active: true
  country: DE
  accounts:
    "24181000":
      active: true
      criteria: ["A", "R"]
    "24185000":
      active: false
      criteria: ["A"]
"499L":
  active: true
  country: GB
  accounts:
    "11000000":
      active: true
      criteria: ["X"]
"0051":
  active: false
  country: FR
  accounts:
    "33000000":
      active: true
      criteria: ["C"]
"0090":
  active: true
  country: IT
  accounts:
    "44000000":
      active: false
      criteria: ["T"]
`

func TestParse_FiltersInactive(t *testing.T) {
	set, err := Parse([]byte(sampleRules), nil)
	require.NoError(t, err)

	// inactive entity and entity without active accounts are dropped
	assert.Len(t, set, 2)
	assert.Contains(t, set, "1052")
	assert.Contains(t, set, "499L")
	assert.NotContains(t, set, "0051")
	assert.NotContains(t, set, "0090")

	assert.Equal(t, "DE", set["1052"].Country)
	assert.Equal(t, []string{"A", "R"}, set["1052"].Accounts["24181000"].Criteria)
}

func TestParse_NoActiveEntity(t *testing.T) {
	_, err := Parse([]byte(`"1052": {active: false}`), nil)
	assert.ErrorIs(t, err, ErrNoActiveEntity)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("{not yaml"), nil)
	assert.Error(t, err)
}

func TestActiveAccounts(t *testing.T) {
	set, err := Parse([]byte(sampleRules), nil)
	require.NoError(t, err)

	accs := set["1052"].ActiveAccounts()
	assert.Equal(t, []string{"24181000"}, accs)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))

	set, err := Load(path, nil)
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestEntities(t *testing.T) {
	set, err := Parse([]byte(sampleRules), nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"1052", "499L"}, set.Entities())
}
