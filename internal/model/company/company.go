package company

import "github.com/benchmarket/benchchat/internal/model/chat"

// Member is a marketplace user who can talk on behalf of a company.
type Member struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Token    string `json:"-"`
}

// Company is a marketplace participant listing or requesting bench staff.
type Company struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []Member `json:"members"`
}

// Seed provides the development companies used by the reference backend.
func Seed() []Company {
	return []Company{
		{
			ID:   "acme",
			Name: "Acme Consulting",
			Members: []Member{
				{UserID: "u-alice", UserName: "Alice Moreau", Token: "dev-acme-alice"},
				{UserID: "u-bruno", UserName: "Bruno Keller", Token: "dev-acme-bruno"},
			},
		},
		{
			ID:   "globex",
			Name: "Globex Staffing",
			Members: []Member{
				{UserID: "u-chen", UserName: "Chen Wei", Token: "dev-globex-chen"},
			},
		},
	}
}

// Identity returns the chat identity of a member acting for c.
func (c Company) Identity(m Member) chat.Identity {
	return chat.Identity{
		UserID:      m.UserID,
		UserName:    m.UserName,
		CompanyID:   c.ID,
		CompanyName: c.Name,
	}
}
