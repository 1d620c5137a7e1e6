package xmldsig

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/xades-detached/internal/domain/dsig"
)

var entityDecl = regexp.MustCompile(`<!ENTITY\s+(%\s*)?([^\s%]+)\s+(?:"([^"]*)"|'([^']*)'|(SYSTEM|PUBLIC)\b)`)

// declaredEntities devuelve las entidades generales internas declaradas en el DOCTYPE.
// Las construcciones de DTD que cambiarían el valor canónico (ATTLIST, entidades externas, de
// parámetro o con marcado) se rechazan con ErrUnsupportedContent. Los errores de sintaxis se
// dejan a checkWellFormed.
func declaredEntities(content []byte) (map[string]string, error) {
	dec := newDecoder(content, nil)
	for {
		tok, err := dec.RawToken()
		if err != nil {
			return nil, nil
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return nil, nil
		case xml.Directive:
			if bytes.HasPrefix(t, []byte("DOCTYPE")) {
				return parseInternalSubset(string(t))
			}
		}
	}
}

func parseInternalSubset(doctype string) (map[string]string, error) {
	entities := map[string]string{}
	open := strings.IndexByte(doctype, '[')
	if open < 0 {
		return entities, nil
	}
	subset := doctype[open+1:]
	if end := strings.LastIndexByte(subset, ']'); end >= 0 {
		subset = subset[:end]
	}
	if strings.Contains(subset, "<!ATTLIST") {
		return nil, fmt.Errorf("%w: declaraciones ATTLIST en el DOCTYPE", dsig.ErrUnsupportedContent)
	}

	matches := entityDecl.FindAllStringSubmatch(subset, -1)
	if len(matches) != strings.Count(subset, "<!ENTITY") {
		return nil, fmt.Errorf("%w: declaración ENTITY no reconocida", dsig.ErrUnsupportedContent)
	}
	for _, m := range matches {
		name := m[2]
		switch {
		case m[1] != "":
			return nil, fmt.Errorf("%w: entidad de parámetro %q", dsig.ErrUnsupportedContent, name)
		case m[5] != "":
			return nil, fmt.Errorf("%w: entidad externa %q", dsig.ErrUnsupportedContent, name)
		}
		value := m[3] + m[4]
		if strings.ContainsAny(value, "<&%") {
			return nil, fmt.Errorf("%w: entidad %q con marcado o referencias", dsig.ErrUnsupportedContent, name)
		}
		// Ante declaraciones repetidas vale la primera.
		if _, ok := entities[name]; !ok {
			entities[name] = value
		}
	}
	return entities, nil
}

// normalizeAttrWhitespace reemplaza por un espacio los tabuladores y saltos de línea literales
// dentro de los valores de atributo ("\r\n" cuenta como uno), como hace un parser XML conforme
// antes de entregar el valor. Las referencias de carácter (&#x9;) no se tocan. Opera sobre
// los bytes de entrada, por lo que solo aplica a encodings compatibles con ASCII.
func normalizeAttrWhitespace(content []byte) []byte {
	out := make([]byte, 0, len(content))
	i := 0
	for i < len(content) {
		if content[i] != '<' {
			out = append(out, content[i])
			i++
			continue
		}
		rest := content[i:]
		switch {
		case bytes.HasPrefix(rest, []byte("<!--")):
			i = copyThrough(&out, content, i, "-->")
		case bytes.HasPrefix(rest, []byte("<![CDATA[")):
			i = copyThrough(&out, content, i, "]]>")
		case bytes.HasPrefix(rest, []byte("<?")):
			i = copyThrough(&out, content, i, "?>")
		case bytes.HasPrefix(rest, []byte("<!")):
			i = copyDirective(&out, content, i)
		default:
			i = copyTag(&out, content, i)
		}
	}
	return out
}

func copyThrough(out *[]byte, content []byte, i int, end string) int {
	n := bytes.Index(content[i:], []byte(end))
	if n < 0 {
		*out = append(*out, content[i:]...)
		return len(content)
	}
	stop := i + n + len(end)
	*out = append(*out, content[i:stop]...)
	return stop
}

// copyDirective copia un <!DOCTYPE ...> completo, incluido el subconjunto interno.
func copyDirective(out *[]byte, content []byte, i int) int {
	depth := 0
	var quote byte
	for j := i + 1; j < len(content); j++ {
		c := content[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '>' && depth <= 0:
			*out = append(*out, content[i:j+1]...)
			return j + 1
		}
	}
	*out = append(*out, content[i:]...)
	return len(content)
}

func copyTag(out *[]byte, content []byte, i int) int {
	var quote byte
	j := i
	for ; j < len(content); j++ {
		c := content[j]
		if quote == 0 {
			*out = append(*out, c)
			switch c {
			case '"', '\'':
				quote = c
			case '>':
				return j + 1
			}
			continue
		}
		switch c {
		case quote:
			quote = 0
			*out = append(*out, c)
		case '\r':
			if j+1 < len(content) && content[j+1] == '\n' {
				j++
			}
			*out = append(*out, ' ')
		case '\t', '\n':
			*out = append(*out, ' ')
		default:
			*out = append(*out, c)
		}
	}
	return j
}

// withDocumentNodes arma la salida canónica del documento: las instrucciones de procesamiento
// y comentarios hijos del nodo documento van seguidos de #xA antes de la raíz y precedidos de
// #xA después de ella. La declaración XML y el DOCTYPE no se emiten.
func withDocumentNodes(doc *etree.Document, root []byte, comments bool) []byte {
	var buf bytes.Buffer
	afterRoot := false
	write := func(node string) {
		if afterRoot {
			buf.WriteByte('\n')
			buf.WriteString(node)
			return
		}
		buf.WriteString(node)
		buf.WriteByte('\n')
	}
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			buf.Write(root)
			afterRoot = true
		case *etree.ProcInst:
			if t.Target == "xml" {
				continue
			}
			write(procInst(t))
		case *etree.Comment:
			if comments {
				write("<!--" + t.Data + "-->")
			}
		}
	}
	return buf.Bytes()
}

func procInst(p *etree.ProcInst) string {
	inst := strings.TrimLeft(p.Inst, " \t\r\n")
	if inst == "" {
		return "<?" + p.Target + "?>"
	}
	return "<?" + p.Target + " " + inst + "?>"
}
