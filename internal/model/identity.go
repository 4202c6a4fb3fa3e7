package model

import (
	"strings"

	"github.com/google/uuid"
)

// DeriveID builds the stable identity of a posting. A site-native id wins;
// otherwise the posting URL is hashed into a UUIDv5 so re-scraping the same
// URL always yields the same id. Returns "" when neither is available.
func DeriveID(site, nativeID, url string) string {
	site = strings.ToLower(strings.TrimSpace(site))
	nativeID = strings.TrimSpace(nativeID)
	url = strings.TrimSpace(url)

	prefix := site
	if prefix == "" {
		prefix = "job"
	}

	switch {
	case nativeID != "":
		return prefix + "-" + nativeID
	case url != "":
		return prefix + "-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
	default:
		return ""
	}
}
