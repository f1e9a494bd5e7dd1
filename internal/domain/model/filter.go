package model

import "strings"

// filter collects the active battle filters.
type filter struct {
	languages      map[string]struct{}
	excludeUnknown bool
	excludeModels  map[string]struct{}
	anonymousOnly  bool
	withoutTies    bool
	dailyVoteLimit int
}

// FilterOption configures a Filter pass.
type FilterOption func(*filter)

// WithLanguages keeps only battles whose language is in langs. An empty
// list keeps everything.
func WithLanguages(langs []string) FilterOption {
	return func(f *filter) {
		if len(langs) == 0 {
			return
		}
		f.languages = make(map[string]struct{}, len(langs))
		for _, l := range langs {
			f.languages[l] = struct{}{}
		}
	}
}

// WithExcludeUnknownLanguage drops battles whose language tag contains
// "unknown".
func WithExcludeUnknownLanguage() FilterOption {
	return func(f *filter) { f.excludeUnknown = true }
}

// WithExcludedModels drops battles involving any of the given competitors.
func WithExcludedModels(models []string) FilterOption {
	return func(f *filter) {
		if len(models) == 0 {
			return
		}
		f.excludeModels = make(map[string]struct{}, len(models))
		for _, m := range models {
			f.excludeModels[m] = struct{}{}
		}
	}
}

// WithAnonymousOnly keeps only battles where the competitors were hidden
// from the judge.
func WithAnonymousOnly() FilterOption {
	return func(f *filter) { f.anonymousOnly = true }
}

// WithoutTies drops both tie variants.
func WithoutTies() FilterOption {
	return func(f *filter) { f.withoutTies = true }
}

// WithDailyVoteLimit keeps at most n battles per judge per UTC day, in
// original order. n <= 0 disables the limit.
func WithDailyVoteLimit(n int) FilterOption {
	return func(f *filter) { f.dailyVoteLimit = n }
}

// Filter returns the subset of battles passing every active filter. The
// input slice is never mutated.
func Filter(battles []Battle, opts ...FilterOption) []Battle {
	var f filter
	for _, opt := range opts {
		opt(&f)
	}

	out := make([]Battle, 0, len(battles))
	seen := make(map[string]int) // judge+day -> votes kept so far
	for _, b := range battles {
		if f.languages != nil {
			if _, ok := f.languages[b.Language]; !ok {
				continue
			}
		}
		if f.excludeUnknown && strings.Contains(b.Language, "unknown") {
			continue
		}
		if f.excludeModels != nil {
			if _, ok := f.excludeModels[b.ModelA]; ok {
				continue
			}
			if _, ok := f.excludeModels[b.ModelB]; ok {
				continue
			}
		}
		if f.anonymousOnly && !b.Anony {
			continue
		}
		if f.withoutTies && b.Winner.IsTie() {
			continue
		}
		if f.dailyVoteLimit > 0 {
			key := b.Judge + "\x00" + b.Day()
			if seen[key] >= f.dailyVoteLimit {
				continue
			}
			seen[key]++
		}
		out = append(out, b)
	}
	return out
}

// RemoveJudges returns the battles whose judge is not in judges.
func RemoveJudges(battles []Battle, judges []string) []Battle {
	if len(judges) == 0 {
		return battles
	}
	drop := make(map[string]struct{}, len(judges))
	for _, j := range judges {
		drop[j] = struct{}{}
	}
	out := make([]Battle, 0, len(battles))
	for _, b := range battles {
		if _, ok := drop[b.Judge]; ok {
			continue
		}
		out = append(out, b)
	}
	return out
}
