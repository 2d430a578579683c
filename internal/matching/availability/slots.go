// internal/matching/availability/slots.go
package availability

import (
	"encoding/json"
	"sort"
	"strings"
)

// Day is a weekday token.
type Day string

// Shift is one of the four coarse daily shifts.
type Shift string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
	Sunday    Day = "SUNDAY"
)

const (
	Morning   Shift = "MORNING"
	Afternoon Shift = "AFTERNOON"
	Night     Shift = "NIGHT"
	Overnight Shift = "OVERNIGHT"
)

// Days and Shifts list the alphabet in canonical order.
var (
	Days   = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
	Shifts = []Shift{Morning, Afternoon, Night, Overnight}
)

var (
	dayIndex   = map[Day]int{}
	shiftIndex = map[Shift]int{}
)

func init() {
	for i, d := range Days {
		dayIndex[d] = i
	}
	for i, s := range Shifts {
		shiftIndex[s] = i
	}
}

// ParseDay normalizes a day token ("monday", "MONDAY").
func ParseDay(s string) (Day, bool) {
	d := Day(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := dayIndex[d]
	return d, ok
}

// ParseShift normalizes a shift token.
func ParseShift(s string) (Shift, bool) {
	sh := Shift(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := shiftIndex[sh]
	return sh, ok
}

// Slot is a DAY_SHIFT token such as MONDAY_MORNING.
type Slot string

// NewSlot builds the token for a day and shift.
func NewSlot(d Day, s Shift) Slot {
	return Slot(string(d) + "_" + string(s))
}

// ParseSlot splits and validates a slot token.
func ParseSlot(s string) (Day, Shift, bool) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	i := strings.IndexByte(raw, '_')
	if i <= 0 {
		return "", "", false
	}
	d, okDay := ParseDay(raw[:i])
	sh, okShift := ParseShift(raw[i+1:])
	if !okDay || !okShift {
		return "", "", false
	}
	return d, sh, true
}

func (s Slot) order() int {
	d, sh, ok := ParseSlot(string(s))
	if !ok {
		return len(Days) * len(Shifts)
	}
	return dayIndex[d]*len(Shifts) + shiftIndex[sh]
}

// ==========================
// SlotSet
// ==========================

// SlotSet is a set of weekly availability slots. A nil or empty set means
// "no availability data", not "never available".
type SlotSet map[Slot]struct{}

// NewSlotSet builds a set from slots.
func NewSlotSet(slots ...Slot) SlotSet {
	set := make(SlotSet, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set
}

// Add inserts a slot.
func (s SlotSet) Add(slot Slot) { s[slot] = struct{}{} }

// Has reports membership. Safe on a nil set.
func (s SlotSet) Has(slot Slot) bool {
	_, ok := s[slot]
	return ok
}

// Len returns the number of slots. Safe on a nil set.
func (s SlotSet) Len() int { return len(s) }

// Sorted returns the slots in canonical day then shift order.
func (s SlotSet) Sorted() []Slot {
	out := make([]Slot, 0, len(s))
	for slot := range s {
		out = append(out, slot)
	}
	sortSlots(out)
	return out
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		oi, oj := slots[i].order(), slots[j].order()
		if oi != oj {
			return oi < oj
		}
		return slots[i] < slots[j]
	})
}

// MarshalJSON encodes the set as a sorted array.
func (s SlotSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of slot tokens, dropping invalid ones.
func (s *SlotSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := make(SlotSet, len(raw))
	for _, token := range raw {
		if d, sh, ok := ParseSlot(token); ok {
			set.Add(NewSlot(d, sh))
		}
	}
	*s = set
	return nil
}

// ==========================
// Array form
// ==========================

// SlotsToArrays flattens a set into its distinct days and shifts. The result
// round-trips through ArraysToSlots only when the set is a full cross product.
func SlotsToArrays(slots SlotSet) ([]Day, []Shift) {
	seenDays := map[Day]bool{}
	seenShifts := map[Shift]bool{}
	for slot := range slots {
		d, sh, ok := ParseSlot(string(slot))
		if !ok {
			continue
		}
		seenDays[d] = true
		seenShifts[sh] = true
	}

	days := make([]Day, 0, len(seenDays))
	for _, d := range Days {
		if seenDays[d] {
			days = append(days, d)
		}
	}
	shifts := make([]Shift, 0, len(seenShifts))
	for _, sh := range Shifts {
		if seenShifts[sh] {
			shifts = append(shifts, sh)
		}
	}
	return days, shifts
}

// ArraysToSlots returns the full cross product of days and shifts.
func ArraysToSlots(days []Day, shifts []Shift) SlotSet {
	set := make(SlotSet, len(days)*len(shifts))
	for _, d := range days {
		for _, sh := range shifts {
			set.Add(NewSlot(d, sh))
		}
	}
	return set
}

// ==========================
// Set comparison
// ==========================

// Overlap reports whether a and b share a slot. An empty side counts as
// compatible.
func Overlap(a, b SlotSet) bool {
	if a.Len() == 0 || b.Len() == 0 {
		return true
	}
	small, large := a, b
	if small.Len() > large.Len() {
		small, large = large, small
	}
	for slot := range small {
		if large.Has(slot) {
			return true
		}
	}
	return false
}

// Intersection returns the shared slots in canonical order.
func Intersection(a, b SlotSet) []Slot {
	out := []Slot{}
	for slot := range a {
		if b.Has(slot) {
			out = append(out, slot)
		}
	}
	sortSlots(out)
	return out
}

// OverlapRatio is |family ∩ caregiver| / |family|, in [0,1]. An empty side
// yields 1.
func OverlapRatio(family, caregiver SlotSet) float64 {
	if family.Len() == 0 || caregiver.Len() == 0 {
		return 1
	}
	return float64(len(Intersection(family, caregiver))) / float64(family.Len())
}
