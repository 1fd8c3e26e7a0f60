package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// uidHexLen truncates digests to 12 hex chars. The full line text stays
// in the preimage, so near-duplicate lines on one ang cannot collide.
const uidHexLen = 12

func shortDigest(preimage string) string {
	sum := sha256.Sum256([]byte(preimage))
	return hex.EncodeToString(sum[:])[:uidHexLen]
}

// ComputeLineUID derives the content-addressed identifier of one line.
// Identical (ang, lineID, gurmukhi) always produces the same UID;
// changing any of the three changes it.
func ComputeLineUID(ang int, lineID, gurmukhi string) string {
	return fmt.Sprintf("ang%d:sha256:%s", ang, shortDigest(fmt.Sprintf("%d:%s:%s", ang, lineID, gurmukhi)))
}

// ComputeShabadUID derives the identifier of a hymn grouping from its
// boundary line. Position-based rather than content-based, so editing
// one line's text does not invalidate its siblings' shabad_uid.
func ComputeShabadUID(ang int, boundaryLineID string) string {
	return "shabad:sha256:" + shortDigest(fmt.Sprintf("%d:%s", ang, boundaryLineID))
}
