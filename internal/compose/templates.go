package compose

// Template is one step of a sequence. Subject and Body are Liquid sources
// rendered with the variables "title" and "signature".
type Template struct {
	Subject string
	Body    string
}

// DefaultSignature closes every default template.
const DefaultSignature = "Tawan"

// DefaultTemplates is the five-step speaker inquiry sequence.
func DefaultTemplates() []Template {
	return []Template{
		{
			Subject: `Question about "{{ title }}"`,
			Body: `Good morning,

I hope all is well.

Can you please tell me who is responsible for hiring speakers for "{{ title }}"?

Thank you,
{{ signature }}
`,
		},
		{
			Subject: `Following up on "{{ title }}"`,
			Body: `Good afternoon,

Just following up to see if you can point me toward the right person who handles speakers for "{{ title }}"?

Thanks so much,
{{ signature }}
`,
		},
		{
			Subject: `Speaker contact for "{{ title }}"?`,
			Body: `Hello,

I know you’re busy, so I’ll keep this short.

Do you happen to know who handles speakers for "{{ title }}"? Even a name or email would be very helpful.

Thank you,
{{ signature }}
`,
		},
		{
			Subject: `Quick question about "{{ title }}"`,
			Body: `Good morning,

I just wanted to check in one last time about "{{ title }}".

If you’re not the right person, could you point me to whoever makes decisions about speakers or presenters for that program?

I appreciate your help,
{{ signature }}
`,
		},
		{
			Subject: `Last follow-up about "{{ title }}"`,
			Body: `Good afternoon,

I promise this is my last follow-up about "{{ title }}".

If now isn’t a good time or this isn’t a fit, no worries at all. If there is someone I should reach out to about speakers for this program, I’d really appreciate being pointed in the right direction.

Thanks again,
{{ signature }}
`,
		},
	}
}
