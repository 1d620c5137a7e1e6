package dsig

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MimeType tipo MIME declarado de un documento desacoplado.
type MimeType string

const (
	MimeTypeXML    MimeType = "text/xml"
	MimeTypeBinary MimeType = "application/octet-stream"
	MimeTypePDF    MimeType = "application/pdf"
	MimeTypeText   MimeType = "text/plain"
	MimeTypeZIP    MimeType = "application/zip"
)

var mimeByExtension = map[string]MimeType{
	".xml": MimeTypeXML,
	".xsd": MimeTypeXML,
	".pdf": MimeTypePDF,
	".txt": MimeTypeText,
	".zip": MimeTypeZIP,
}

// MimeTypeFromName infiere el tipo MIME por la extensión del nombre; binario si no se reconoce.
func MimeTypeFromName(name string) MimeType {
	if mt, ok := mimeByExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return MimeTypeBinary
}

// IsXML indica si el contenido declarado es XML (text/xml, application/xml, */*+xml).
func (m MimeType) IsXML() bool {
	s := strings.ToLower(string(m))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s == "text/xml" || s == "application/xml" || strings.HasSuffix(s, "+xml")
}

func (m MimeType) String() string { return string(m) }

// Document contenido desacoplado a firmar. El motor solo lo lee, nunca lo modifica.
// Name vacío significa documento sin nombre (se firma por posición).
type Document interface {
	Name() string
	MimeType() MimeType
	Open() (io.ReadCloser, error)
}

// Linked forma enlazada original: un documento que apunta al siguiente de la cadena.
type Linked interface {
	Next() Document
}

// InMemoryDocument documento con el contenido en memoria.
type InMemoryDocument struct {
	name     string
	mimeType MimeType
	data     []byte
}

// NewInMemoryDocument crea un documento en memoria. Si mimeType es vacío se infiere del nombre.
func NewInMemoryDocument(name string, mimeType MimeType, data []byte) *InMemoryDocument {
	if mimeType == "" {
		mimeType = MimeTypeFromName(name)
	}
	return &InMemoryDocument{name: name, mimeType: mimeType, data: data}
}

func (d *InMemoryDocument) Name() string       { return d.name }
func (d *InMemoryDocument) MimeType() MimeType { return d.mimeType }

// Open devuelve un lector sobre el contenido.
func (d *InMemoryDocument) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(d.data)), nil
}

// Bytes devuelve el contenido.
func (d *InMemoryDocument) Bytes() []byte { return d.data }

func (d *InMemoryDocument) String() string {
	return fmt.Sprintf("InMemoryDocument{name=%q, mimeType=%s, size=%d}", d.name, d.mimeType, len(d.data))
}

// FileDocument documento en disco, leído de forma perezosa en cada Open.
type FileDocument struct {
	path     string
	name     string
	mimeType MimeType
}

// NewFileDocument crea un documento a partir de una ruta. El nombre es el nombre base del archivo.
func NewFileDocument(path string, mimeType MimeType) *FileDocument {
	name := filepath.Base(path)
	if mimeType == "" {
		mimeType = MimeTypeFromName(name)
	}
	return &FileDocument{path: path, name: name, mimeType: mimeType}
}

func (d *FileDocument) Name() string       { return d.name }
func (d *FileDocument) MimeType() MimeType { return d.mimeType }

// Open abre el archivo; un fallo se reporta como ErrContentRead.
func (d *FileDocument) Open() (io.ReadCloser, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContentRead, d.name, err)
	}
	return f, nil
}

// LinkedDocument envuelve un Document con el enlace al siguiente de la cadena.
type LinkedDocument struct {
	Document
	next Document
}

// Link enlaza los documentos en el orden recibido y devuelve la cabeza (nil si no hay documentos).
func Link(docs ...Document) Document {
	var head Document
	for i := len(docs) - 1; i >= 0; i-- {
		head = &LinkedDocument{Document: docs[i], next: head}
	}
	return head
}

// Next implementa Linked.
func (d *LinkedDocument) Next() Document { return d.next }
