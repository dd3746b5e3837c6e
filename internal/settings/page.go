package settings

import "context"

// Field kinds.
const (
	KindNumber   = "number"
	KindCheckbox = "checkbox"
)

// Field describes one editable setting for any front end (CLI, JSON API).
type Field struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Min         *int   `json:"min,omitempty"`
	Max         *int   `json:"max,omitempty"`
	Value       any    `json:"value"`
}

// Page is the render-agnostic settings page.
type Page struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Fields      []Field  `json:"fields"`
	HowItWorks  []string `json:"how_it_works"`
}

// Page builds the settings page from the current snapshot.
func (a *Accessor) Page(ctx context.Context) Page {
	return BuildPage(a.Load(ctx))
}

// BuildPage describes s as a settings page.
func BuildPage(s Settings) Page {
	lo, hi := MinDaysInactive, MaxDaysInactive
	return Page{
		Title:       "Subscriber Purge Settings",
		Description: "Configure automatic deletion of inactive subscriber accounts.",
		Fields: []Field{
			{
				Key:         KeyDaysInactive,
				Label:       "Days Inactive Before Purge",
				Description: "Number of days a subscriber account can be inactive (with no comments) before it is purged. Default: 30 days.",
				Kind:        KindNumber,
				Min:         &lo,
				Max:         &hi,
				Value:       s.DaysInactive,
			},
			{
				Key:         KeySendEmails,
				Label:       "Send Email Notifications",
				Description: "If enabled, users will receive an email explaining why their account was deleted.",
				Kind:        KindCheckbox,
				Value:       s.SendEmails,
			},
			{
				Key:         KeyNotifyAdmin,
				Label:       "Notify Admin on Purge",
				Description: "If enabled, the site admin will receive detailed information about each purged account.",
				Kind:        KindCheckbox,
				Value:       s.NotifyAdmin,
			},
		},
		HowItWorks: []string{
			"The purge job runs on a fixed interval (every 15 minutes by default).",
			"It checks for subscriber accounts that haven't made any comments.",
			"Accounts inactive for the specified number of days are deleted oldest-first, one user per run.",
			"Optionally, an email notification is sent before deletion (only one per run).",
		},
	}
}
