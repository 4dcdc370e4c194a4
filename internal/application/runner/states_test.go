package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStates_FlagsStartFalse(t *testing.T) {
	s := NewStates([]string{"1052", "499L"})

	st := s.Get("1052")
	assert.False(t, st.Exported)
	assert.False(t, st.Cleared)
	assert.False(t, st.NoOpenItems)
}

func TestStates_SetAndGet(t *testing.T) {
	s := NewStates([]string{"1052"})

	s.SetExported("1052", true)
	s.SetCleared("1052", true)
	s.SetNoOpenItems("1052", true)

	st := s.Get("1052")
	assert.True(t, st.Exported)
	assert.True(t, st.Cleared)
	assert.True(t, st.NoOpenItems)
}

func TestStates_GetReturnsCopy(t *testing.T) {
	s := NewStates([]string{"1052"})

	st := s.Get("1052")
	st.Exported = true

	assert.False(t, s.Get("1052").Exported)
}

func TestStates_UnknownEntityPanics(t *testing.T) {
	s := NewStates([]string{"1052"})

	assert.Panics(t, func() { s.Get("9999") })
	assert.Panics(t, func() { s.SetExported("9999", true) })
}

func TestStates_Entities(t *testing.T) {
	s := NewStates([]string{"499L", "0073", "1052"})

	assert.Equal(t, []string{"0073", "1052", "499L"}, s.Entities())
}
