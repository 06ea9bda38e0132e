package overlay

import (
	"sort"

	"github.com/benchmarket/benchchat/internal/model/chat"
)

// merge folds server messages into the local cache. Entries are keyed by
// id and the server copy wins; optimistic entries are kept and nothing
// local is dropped. The result is sorted by created_at, ties keep their
// existing order.
func merge(local, fresh []chat.Message, owner chat.Identity) []chat.Message {
	out := make([]chat.Message, len(local), len(local)+len(fresh))
	copy(out, local)

	index := make(map[string]int, len(out))
	for i, m := range out {
		index[m.Key()] = i
	}

	for _, m := range fresh {
		m = fromServer(m, owner)
		if i, ok := index[m.Key()]; ok {
			out[i] = m
			continue
		}
		index[m.Key()] = len(out)
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// settle swaps the optimistic entry localID for its acknowledged server
// copy. A poll may already have delivered that copy, in which case the
// optimistic entry is dropped.
func settle(list []chat.Message, localID string, server chat.Message, owner chat.Identity) []chat.Message {
	server = fromServer(server, owner)

	out := make([]chat.Message, 0, len(list))
	seen := false
	for _, m := range list {
		if m.ID != "" && m.ID == server.ID {
			seen = true
		}
	}
	for _, m := range list {
		if m.ID == "" && m.LocalID == localID {
			if !seen {
				out = append(out, server)
				seen = true
			}
			continue
		}
		out = append(out, m)
	}
	if !seen {
		out = append(out, server)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func fromServer(m chat.Message, owner chat.Identity) chat.Message {
	m.IsSender = owner.Owns(m)
	m.Status = chat.StatusSent
	m.LocalID = ""
	return m
}

// readFlags maps server ids to their read state, used to spot receipt
// changes on a page whose last id did not move.
func readFlags(list []chat.Message) map[string]bool {
	flags := make(map[string]bool, len(list))
	for _, m := range list {
		if m.ID != "" {
			flags[m.ID] = m.IsRead
		}
	}
	return flags
}
