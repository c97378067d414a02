// intakelint loads a form template, reports schema problems (dangling,
// forward or circular condition references and duplicated question ids)
// and can print the visible tree and formatted document for a given
// answer file.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/carelane/intake/intakelib/manager"
)

type options struct {
	Template string `short:"t" long:"template" description:"Path to the form template JSON" required:"true"`
	Answers  string `short:"a" long:"answers" description:"Path to an answers JSON file used for the preview"`
	Mode     string `short:"m" long:"mode" description:"Rendering mode for the preview" default:"patient"`
	Preview  bool   `short:"p" long:"preview" description:"Print the visible tree and formatted document"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	data, err := os.ReadFile(opts.Template)
	if err != nil {
		fmt.Fprintf(os.Stderr, "intakelint: %s\n", err)
		os.Exit(1)
	}

	template, err := manager.ParseTemplate(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "intakelint: %s\n", err)
		os.Exit(1)
	}

	findings := template.Findings()
	for _, f := range findings {
		fmt.Printf("%s: %s\n", f.Kind, f.Message)
	}

	if opts.Preview {
		if err := preview(template, opts); err != nil {
			fmt.Fprintf(os.Stderr, "intakelint: %s\n", err)
			os.Exit(1)
		}
	}

	if len(findings) != 0 {
		os.Exit(1)
	}
}

func preview(template *manager.FormTemplate, opts options) error {
	var answers map[string]interface{}
	if opts.Answers != "" {
		data, err := os.ReadFile(opts.Answers)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &answers); err != nil {
			return err
		}
	}

	session, err := manager.NewSession(manager.SessionConfig{
		Template:       template,
		Mode:           opts.Mode,
		InitialAnswers: answers,
	})
	if err != nil {
		return err
	}

	fmt.Println(session.VisibleTree().DebugString())
	fmt.Println(session.Document())
	return nil
}
