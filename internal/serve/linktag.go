package serve

import (
	"html/template"
	"strings"
)

var linkTemplate = template.Must(template.New("link").Parse(
	`<link rel="stylesheet" href="{{.Href}}"{{if .Marked}} data-tailbreeze="true"{{end}} />` +
		`{{if .Fallback}}
<script>
  (function() {
    var link = document.querySelector('link[data-tailbreeze]');
    if (link) {
      link.onerror = function() {
        console.warn('Tailbreeze: loading Tailwind CSS from CDN fallback');
        var cdn = document.createElement('script');
        cdn.src = {{.CDN}};
        document.head.appendChild(cdn);
      };
    }
  })();
</script>{{end}}`))

// LinkTag renders the stylesheet link for templates. With fallbackScript it
// also emits a script that loads the CDN build if the stylesheet fails.
func (l *Layer) LinkTag(fallbackScript bool) template.HTML {
	var b strings.Builder
	err := linkTemplate.Execute(&b, struct {
		Href     string
		Marked   bool
		Fallback bool
		CDN      string
	}{
		Href:     l.servePath,
		Marked:   l.dev || fallbackScript,
		Fallback: fallbackScript,
		CDN:      l.cdnURL,
	})
	if err != nil {
		l.logger.Error().Err(err).Msg("render link tag")
		return ""
	}
	return template.HTML(b.String())
}

// TemplateFuncs exposes LinkTag to html/template as tailwindLink.
func (l *Layer) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"tailwindLink": l.LinkTag,
	}
}
