package oauth

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// NormalizeProfile maps a raw user-info document onto a domain.Profile.
// Missing or non-scalar fields become empty strings.
func NormalizeProfile(name platform.Name, raw []byte) domain.Profile {
	switch name {
	case platform.Twitter:
		return domain.Profile{
			Username:     first(raw, "username", "data.username"),
			DisplayName:  first(raw, "name", "data.name"),
			ProfileImage: first(raw, "profile_image_url", "data.profile_image_url"),
		}
	case platform.Instagram:
		return domain.Profile{
			Username:     first(raw, "username"),
			DisplayName:  first(raw, "name", "username"),
			ProfileImage: first(raw, "profile_picture_url"),
		}
	case platform.Facebook:
		return domain.Profile{
			Username:     first(raw, "id"),
			DisplayName:  first(raw, "name"),
			ProfileImage: first(raw, "picture.data.url"),
		}
	case platform.LinkedIn:
		given := first(raw, "firstName.localized.en_US")
		family := first(raw, "lastName.localized.en_US")
		return domain.Profile{
			Username:     first(raw, "id"),
			DisplayName:  strings.TrimSpace(given + " " + family),
			ProfileImage: first(raw, `profilePicture.displayImage\~.elements.0.identifiers.0.identifier`),
		}
	case platform.YouTube:
		return domain.Profile{
			Username:     first(raw, "id"),
			DisplayName:  first(raw, "name"),
			ProfileImage: first(raw, "picture"),
		}
	}
	return domain.Profile{}
}

// first returns the first non-empty scalar found at paths.
func first(raw []byte, paths ...string) string {
	for _, p := range paths {
		r := gjson.GetBytes(raw, p)
		if r.Type != gjson.String && r.Type != gjson.Number {
			continue
		}
		if s := r.String(); s != "" {
			return s
		}
	}
	return ""
}
