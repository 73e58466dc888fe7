package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// Posting-time analysis parameters.
const (
	PostingLookbackDays = 90
	minPostsPerSlot     = 3
	maxPostingSlots     = 20
)

// PostingSlot is the engagement summary of one weekday/hour combination.
type PostingSlot struct {
	DayOfWeek         string  `json:"day_of_week"`
	HourOfDay         int     `json:"hour_of_day"`
	TimeSlot          string  `json:"time_slot"`
	PostCount         int     `json:"post_count"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	AvgClicks         float64 `json:"avg_clicks"`
	AvgImpressions    float64 `json:"avg_impressions"`
}

// PostingTimes ranks the best slots to publish in.
type PostingTimes struct {
	Platform       string        `json:"platform"`
	OptimalTimes   []PostingSlot `json:"optimal_times"`
	Count          int           `json:"count"`
	Recommendation string        `json:"recommendation"`
}

// nullableMean averages the non-nil values it is given.
type nullableMean struct {
	sum float64
	n   int
}

func (m *nullableMean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m nullableMean) value() (float64, bool) {
	if m.n == 0 {
		return 0, false
	}
	return m.sum / float64(m.n), true
}

type slotKey struct {
	day  time.Weekday
	hour int
}

type slotAgg struct {
	key                            slotKey
	posts                          int
	engagement, clicks, impression nullableMean
}

// OptimalPostingTimes groups published posts scheduled on or after since by
// weekday and hour, keeps slots with at least three posts and ranks them by
// average engagement. Slots without any engagement data sort last. An empty
// platform means every platform.
func OptimalPostingTimes(posts []domain.PostPerformance, platform string, since time.Time) PostingTimes {
	slots := map[slotKey]*slotAgg{}
	for _, p := range posts {
		if p.Status != domain.PostStatusPublished || p.ScheduledAt.Before(since) {
			continue
		}
		if platform != "" && p.Platform != platform {
			continue
		}
		k := slotKey{p.ScheduledAt.Weekday(), p.ScheduledAt.Hour()}
		s := slots[k]
		if s == nil {
			s = &slotAgg{key: k}
			slots[k] = s
		}
		s.posts++
		s.engagement.add(p.EngagementRate)
		s.clicks.add(p.Clicks)
		s.impression.add(p.Impressions)
	}

	var ranked []*slotAgg
	for _, s := range slots {
		if s.posts >= minPostsPerSlot {
			ranked = append(ranked, s)
		}
	}
	slices.SortFunc(ranked, func(a, b *slotAgg) int {
		ea, oka := a.engagement.value()
		eb, okb := b.engagement.value()
		switch {
		case oka && !okb:
			return -1
		case !oka && okb:
			return 1
		}
		if c := cmp.Compare(eb, ea); c != 0 {
			return c
		}
		if c := cmp.Compare(a.key.day, b.key.day); c != 0 {
			return c
		}
		return cmp.Compare(a.key.hour, b.key.hour)
	})
	if len(ranked) > maxPostingSlots {
		ranked = ranked[:maxPostingSlots]
	}

	out := PostingTimes{
		Platform:       platform,
		OptimalTimes:   make([]PostingSlot, 0, len(ranked)),
		Count:          len(ranked),
		Recommendation: "Not enough data for recommendations",
	}
	if out.Platform == "" {
		out.Platform = "all"
	}
	for _, s := range ranked {
		eng, _ := s.engagement.value()
		clicks, _ := s.clicks.value()
		imps, _ := s.impression.value()
		out.OptimalTimes = append(out.OptimalTimes, PostingSlot{
			DayOfWeek:         s.key.day.String(),
			HourOfDay:         s.key.hour,
			TimeSlot:          fmt.Sprintf("%02d:00 - %02d:59", s.key.hour, s.key.hour),
			PostCount:         s.posts,
			AvgEngagementRate: round(eng, 3),
			AvgClicks:         round(clicks, 0),
			AvgImpressions:    round(imps, 0),
		})
	}
	if len(ranked) > 0 {
		best := out.OptimalTimes[0]
		out.Recommendation = fmt.Sprintf("Best time to post: %s at %d:00", best.DayOfWeek, best.HourOfDay)
	}
	return out
}
