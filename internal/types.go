package internal

import "time"

// CompoundRecord holds the PubChem metadata attached to one resolved search
// name. When CID resolution ends in a sentinel value, that sentinel is
// propagated across every string field.
type CompoundRecord struct {
	CID              string    `json:"pubchem_cid"`
	CanonicalSMILES  string    `json:"canonical_smiles"`
	InChI            string    `json:"inchi"`
	InChIKey         string    `json:"inchi_key"`
	MolecularFormula string    `json:"molecular_formula"`
	MolecularWeight  string    `json:"molecular_weight"`
	IUPACName        string    `json:"iupac_name"`
	Synonyms         string    `json:"synonyms"`
	RetrievedAt      time.Time `json:"retrieved_at"`
}
