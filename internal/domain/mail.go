package domain

const (
	MailTypeCreateUser      = "create_user"
	MailTypeResetPassword   = "reset_password"
	MailTypeLineupPublished = "lineup_published"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// LineupPublishedMailData 通知运动员其所在的艇和座位
type LineupPublishedMailData struct {
	AthleteName string `json:"athleteName"`
	LineupName  string `json:"lineupName"`
	BoatNumber  int    `json:"boatNumber"`
	Position    int    `json:"position"`
	Side        Side   `json:"side"`
}
