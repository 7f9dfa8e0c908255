package domain

// chatKeySep cannot appear in user ids produced by the store (uuids and the
// seeded "userN" ids).
const chatKeySep = "__"

// ChatKey returns the canonical chat identifier for an unordered pair of user
// ids: the ids are sorted and joined, so ChatKey(a, b) == ChatKey(b, a).
func ChatKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + chatKeySep + b
}
