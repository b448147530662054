package usecase

import (
	"sort"
	"strings"

	meetingdomain "meetsync-backend/internal/meeting/domain"
)

// Reply/forward markers stripped from the front of a subject, each possibly
// stacked ("Fwd: Re: standup").
var replyPrefixes = []string{"re:", "fwd:", "fw:", "reply:", "forward:"}

// NormalizeSubject strips thread markers and collapses whitespace so all
// emails of one conversation share a key. Idempotent: normalizing an already
// normalized subject returns it unchanged.
func NormalizeSubject(subject string) string {
	normalized := strings.TrimSpace(subject)

	for {
		stripped := false
		lower := strings.ToLower(normalized)
		for _, prefix := range replyPrefixes {
			if strings.HasPrefix(lower, prefix) {
				normalized = strings.TrimSpace(normalized[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}

	normalized = strings.Join(strings.Fields(normalized), " ")
	if normalized == "" {
		return meetingdomain.NoSubject
	}
	return normalized
}

// GroupBySubject buckets emails by normalized subject. Every input email
// lands in exactly one bucket; bucket membership depends only on the
// subject. Within a bucket, emails are ordered by their raw date header
// descending. The comparison is lexicographic, not temporal: non-ISO date
// headers sort incorrectly. That matches the upstream behavior and is
// pinned by tests rather than fixed.
func GroupBySubject(emails []*meetingdomain.EmailRecord) map[string][]*meetingdomain.EmailRecord {
	groups := make(map[string][]*meetingdomain.EmailRecord)

	for _, email := range emails {
		key := NormalizeSubject(email.Subject)
		groups[key] = append(groups[key], email)
	}

	for _, bucket := range groups {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Date > bucket[j].Date
		})
	}

	return groups
}

// sortedGroupKeys returns bucket keys in a stable order so batch processing
// and its logs are deterministic.
func sortedGroupKeys(groups map[string][]*meetingdomain.EmailRecord) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
