package roster

// NameSource identifies where a display name came from.
type NameSource string

const (
	SourceNickname     NameSource = "nickname"
	SourceFullName     NameSource = "full_name"
	SourcePushName     NameSource = "push_name"
	SourceFirstName    NameSource = "first_name"
	SourceBusinessName NameSource = "business_name"
	SourcePhoneNumber  NameSource = "phone_number"
)

// DisplayNamePrecedence is the order in which name sources are tried. The
// first non-empty one wins.
var DisplayNamePrecedence = []NameSource{
	SourceNickname,
	SourceFullName,
	SourcePushName,
	SourceFirstName,
	SourceBusinessName,
	SourcePhoneNumber,
}

// field returns the value of one name source. A nil contact only has a
// nickname and a phone number.
func field(c *Contact, nickname, phone string, src NameSource) string {
	switch src {
	case SourceNickname:
		return nickname
	case SourcePhoneNumber:
		return phone
	}
	if c == nil {
		return ""
	}
	switch src {
	case SourceFullName:
		return c.FullName
	case SourcePushName:
		return c.PushName
	case SourceFirstName:
		return c.FirstName
	case SourceBusinessName:
		return c.BusinessName
	}
	return ""
}

// DisplayName picks a name for a contact following DisplayNamePrecedence.
// c may be nil when the roster has no entry; phone is used as the last
// resort.
func DisplayName(c *Contact, nickname, phone string) (string, NameSource) {
	if phone == "" && c != nil {
		phone = c.PhoneNumber
	}
	for _, src := range DisplayNamePrecedence {
		if v := field(c, nickname, phone, src); v != "" {
			return v, src
		}
	}
	return "", SourcePhoneNumber
}
