package switcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwitcher_DefaultsToGolfer(t *testing.T) {
	s := New()
	assert.Equal(t, SourceGolfer, s.ProgramSourceIndex())
}

func TestSwitcher_SetFiresHandlerOnChange(t *testing.T) {
	s := New()
	var calls []([2]SourceIndex)
	s.OnProgramSourceChanged(func(old, new SourceIndex) {
		calls = append(calls, [2]SourceIndex{old, new})
	})

	s.SetProgramSourceIndex(SourceSimulator)
	s.SetProgramSourceIndex(SourceSimulator) // redundant, must not fire
	s.SetProgramSourceIndex(SourceGolfer)

	assert.Equal(t, []([2]SourceIndex){
		{SourceGolfer, SourceSimulator},
		{SourceSimulator, SourceGolfer},
	}, calls)
}

func TestSwitcher_HandlersFireInRegistrationOrder(t *testing.T) {
	s := New()
	var order []int
	s.OnProgramSourceChanged(func(old, new SourceIndex) { order = append(order, 1) })
	s.OnProgramSourceChanged(func(old, new SourceIndex) { order = append(order, 2) })

	s.SetProgramSourceIndex(SourceSimulator)
	assert.Equal(t, []int{1, 2}, order)
}
