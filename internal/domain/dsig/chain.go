package dsig

import "fmt"

// Chain secuencia ordenada y explícita de documentos desacoplados (al menos uno).
type Chain []Document

// FromLinked aplana la forma enlazada siguiendo Next() hasta nil.
// No detecta ciclos: una cadena cíclica es una violación del contrato del llamador.
func FromLinked(head Document) Chain {
	var chain Chain
	for d := head; d != nil; {
		chain = append(chain, d)
		l, ok := d.(Linked)
		if !ok {
			break
		}
		d = l.Next()
	}
	return chain
}

// Validate verifica que la cadena no esté vacía ni tenga entradas nil.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: sin documentos", ErrChainTraversal)
	}
	for i, d := range c {
		if d == nil {
			return fmt.Errorf("%w: documento %d es nil", ErrChainTraversal, i)
		}
	}
	return nil
}

// ForEachDocument invoca fn exactamente una vez por documento, en orden.
// Se detiene en el primer error de fn y lo devuelve tal cual.
func ForEachDocument(chain Chain, fn func(i int, d Document) error) error {
	if err := chain.Validate(); err != nil {
		return err
	}
	for i, d := range chain {
		if err := fn(i, d); err != nil {
			return err
		}
	}
	return nil
}
