package chat

// Identity is the viewer of a conversation. It is passed explicitly into
// the overlay instead of being read from ambient auth state.
type Identity struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

// Owns reports whether m was sent by the identity's company, falling back to
// the user id when the backend omits the company.
func (id Identity) Owns(m Message) bool {
	if m.SenderCompanyID != "" && id.CompanyID != "" {
		return m.SenderCompanyID == id.CompanyID
	}
	return m.SenderUserID != "" && m.SenderUserID == id.UserID
}
