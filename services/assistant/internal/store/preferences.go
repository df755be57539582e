package store

import (
	"sync"

	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

// PreferenceStore keeps the session's user preferences in-process.
// Values are accepted as given; no field is validated here.
type PreferenceStore struct {
	mu    sync.RWMutex
	prefs domain.UserPreferences
}

// NewPreferenceStore initializes the store with initial preferences.
func NewPreferenceStore(initial domain.UserPreferences) *PreferenceStore {
	return &PreferenceStore{prefs: initial.Clone()}
}

// Get returns a copy of the current preferences.
func (s *PreferenceStore) Get() domain.UserPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Clone()
}

// Update applies every non-nil field of patch and returns the result.
func (s *PreferenceStore) Update(patch domain.PreferencesPatch) domain.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if patch.WorkingHoursStart != nil {
		s.prefs.WorkingHoursStart = *patch.WorkingHoursStart
	}
	if patch.WorkingHoursEnd != nil {
		s.prefs.WorkingHoursEnd = *patch.WorkingHoursEnd
	}
	if patch.Timezone != nil {
		s.prefs.Timezone = *patch.Timezone
	}
	if patch.VIPContacts != nil {
		s.prefs.VIPContacts = append([]string(nil), (*patch.VIPContacts)...)
	}
	if patch.AutoSchedule != nil {
		s.prefs.AutoSchedule = *patch.AutoSchedule
	}
	if patch.WritingStyleSamples != nil {
		s.prefs.WritingStyleSamples = capSamples(append([]string{}, (*patch.WritingStyleSamples)...))
	}
	if patch.BriefingDeliveryTime != nil {
		s.prefs.BriefingDeliveryTime = *patch.BriefingDeliveryTime
	}
	if patch.BriefingEnabled != nil {
		s.prefs.BriefingEnabled = *patch.BriefingEnabled
	}
	return s.prefs.Clone()
}

// AddStyleSample prepends sample to the writing-style history, evicting the
// oldest entries beyond domain.MaxStyleSamples.
func (s *PreferenceStore) AddStyleSample(sample string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	samples := make([]string, 0, len(s.prefs.WritingStyleSamples)+1)
	samples = append(samples, sample)
	samples = append(samples, s.prefs.WritingStyleSamples...)
	s.prefs.WritingStyleSamples = capSamples(samples)
	return append([]string{}, s.prefs.WritingStyleSamples...)
}

// ResetStyleSamples clears the writing-style history.
func (s *PreferenceStore) ResetStyleSamples() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.WritingStyleSamples = []string{}
}

func capSamples(samples []string) []string {
	if len(samples) > domain.MaxStyleSamples {
		return samples[:domain.MaxStyleSamples]
	}
	return samples
}
