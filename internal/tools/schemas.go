package tools

import "github.com/invopop/jsonschema"

// Input types for the built-in tools. Their JSON schemas are generated
// at registration time and sent to the model verbatim.

// AddCalendarEventInput creates a calendar event.
type AddCalendarEventInput struct {
	Title       string `json:"title" jsonschema:"required,description=Event title"`
	StartTime   string `json:"start_time" jsonschema:"required,description=Start time in RFC 3339 format"`
	EndTime     string `json:"end_time,omitempty" jsonschema:"description=End time in RFC 3339 format; defaults to one hour after start"`
	Description string `json:"description,omitempty" jsonschema:"description=Optional event description"`
}

// CreateAppleNoteInput creates a note in Apple Notes.
type CreateAppleNoteInput struct {
	Title string `json:"title" jsonschema:"required,description=Note title"`
	Body  string `json:"body" jsonschema:"required,description=Note body text"`
}

// ComposeGmailInput sends an email through the user's Gmail account.
type ComposeGmailInput struct {
	To      string `json:"to" jsonschema:"required,description=Recipient email address"`
	Subject string `json:"subject" jsonschema:"required,description=Email subject"`
	Body    string `json:"body" jsonschema:"required,description=Plain text email body"`
}

// SearchDocumentsInput searches the user's indexed documents.
type SearchDocumentsInput struct {
	Query string `json:"query" jsonschema:"required,description=What to look for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"description=How many chunks to return,minimum=1,maximum=50"`
}

// schemaFor generates the parameter schema for an input type. Schemas
// are inlined without $ref indirection so they serialize to the flat
// object form tool declarations expect.
func schemaFor(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	return r.Reflect(v)
}
