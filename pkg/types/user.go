package types

// UserProfile is a read-only projection of one directory entry. Profiles are
// fetched once per board session and cached by id; this core never mutates
// them.
type UserProfile struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name,omitempty"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Project is a read-only projection of one project record. TeamIDs is an
// ordered set that includes the owner.
type Project struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	TeamIDs []string `json:"team_ids,omitempty"`
}
