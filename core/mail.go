package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	appfs "github.com/gothwad/classesx/fs"
)

const emailTemplatesDir = "templates/email"

var (
	emailTemplates map[string]*emailTemplate // by name, without extension
	tmplInit       sync.Once
)

// executor is satisfied by both text and html templates.
type executor interface {
	ExecuteTemplate(w io.Writer, name string, data interface{}) error
}

// emailTemplate pairs the plain text and HTML bodies of an email. Either may be missing.
type emailTemplate struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

type (
	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render fills TextContent and HTMLContent. BodyStr, when set, wins over the text template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	ParseEmailTemplates(nil)

	tmpl, ok := emailTemplates[m.TemplateName]
	if !ok {
		return nil
	}
	data := ContextData{FrontendBaseURL: Conf.FrontendBaseURL, Data: m.TemplateData}

	var err error
	if m.BodyStr == "" && tmpl.text != nil {
		if m.TextContent, err = execute(tmpl.text, data); err != nil {
			return err
		}
	}
	if tmpl.html != nil {
		m.HTMLContent, err = execute(tmpl.html, data)
	}
	return err
}

func execute(t executor, data ContextData) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Attach base64 encodes the content of r and attaches it to the message.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}

	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses the embedded email templates. Only the first call does any work.
func ParseEmailTemplates(logger Logger) {
	tmplInit.Do(func() { parseTemplates(logger) })
}

func parseTemplates(logger Logger) {
	emailTemplates = make(map[string]*emailTemplate)
	logErr := func(err error) {
		err = fmt.Errorf("core.parseTemplates: %v", err)
		if logger != nil {
			logger.Error(err.Error(), err)
		} else {
			log.Print(err)
		}
	}

	entries, err := fs.ReadDir(appfs.FS, emailTemplatesDir)
	if err != nil {
		logErr(err)
		return
	}

	missingKey := "missingkey=default"
	if Conf.Debug || Conf.TestMode {
		missingKey = "missingkey=error"
	}
	for _, de := range entries {
		fname := de.Name()
		ext := path.Ext(fname)
		if de.IsDir() || strings.HasPrefix(fname, "_") {
			continue
		}
		files := []string{path.Join(emailTemplatesDir, "_base"+ext), path.Join(emailTemplatesDir, fname)}
		name := strings.TrimSuffix(fname, ext)
		tmpl := emailTemplates[name]
		if tmpl == nil {
			tmpl = new(emailTemplate)
		}

		switch ext {
		case ".txt":
			t, err := texttmpl.ParseFS(appfs.FS, files...)
			if err != nil {
				logErr(err)
				continue
			}
			tmpl.text = t.Option(missingKey)
		case ".gohtml":
			t, err := htmltmpl.ParseFS(appfs.FS, files...)
			if err != nil {
				logErr(err)
				continue
			}
			tmpl.html = t.Option(missingKey)
		default:
			continue
		}
		emailTemplates[name] = tmpl
	}
}
