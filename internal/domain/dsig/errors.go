package dsig

import "errors"

// Taxonomía de errores del motor de referencias y manifiestos.
// Todos son terminales para la construcción en curso: se propagan, nunca se registran y se ignoran.
var (
	ErrUnsupportedTransform = errors.New("dsig: transformación no soportada")
	ErrCanonicalization     = errors.New("dsig: error de canonicalización")
	ErrUnsupportedAlgorithm = errors.New("dsig: algoritmo de digest no soportado")
	ErrContentRead          = errors.New("dsig: no se pudo leer el contenido del documento")
	// ErrUnsupportedContent XML bien formado que usa construcciones no soportadas
	// (DTD con entidades externas, de parámetro o con marcado, o declaraciones ATTLIST).
	ErrUnsupportedContent = errors.New("dsig: contenido XML no soportado")
	// ErrInvalidURI nombre de documento que no puede usarse como URI de una referencia detached.
	ErrInvalidURI = errors.New("dsig: URI de referencia inválida")
	// ErrChainTraversal se reserva para cadenas malformadas (vacías o con entradas nil).
	// No se detectan ciclos.
	ErrChainTraversal = errors.New("dsig: cadena de documentos inválida")
)
