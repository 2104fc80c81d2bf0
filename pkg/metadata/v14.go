package metadata

// RegistryMetadata is the body of the registry based schemas (V14, V15).
// Fields that only exist in V15 are left empty for V14 documents.
type RegistryMetadata struct {
	Types     PortableRegistry `json:"types"`
	Pallets   []Pallet         `json:"pallets"`
	Extrinsic Extrinsic        `json:"extrinsic"`
	Ty        uint32           `json:"ty"`

	APIs       []RuntimeAPI `json:"apis,omitempty"`
	OuterEnums *OuterEnums  `json:"outer_enums,omitempty"`
}

// Pallet is a module of a registry based runtime.
type Pallet struct {
	Name      string           `json:"name"`
	Storage   *PalletStorage   `json:"storage"`
	Calls     *PalletTypeRef   `json:"calls"`
	Event     *PalletTypeRef   `json:"event"`
	Constants []PalletConstant `json:"constants"`
	Error     *PalletTypeRef   `json:"error"`
	Index     uint8            `json:"index"`
	Docs      []string         `json:"docs,omitempty"`
}

// PalletTypeRef points at the variant enum describing calls, events or errors.
type PalletTypeRef struct {
	Ty uint32 `json:"ty"`
}

type PalletStorage struct {
	Prefix  string         `json:"prefix"`
	Entries []StorageEntry `json:"entries"`
}

// StorageEntry is a registry based storage item.
type StorageEntry struct {
	Name     string           `json:"name"`
	Modifier string           `json:"modifier"`
	Ty       StorageEntryType `json:"ty"`
	Default  Bytes            `json:"default"`
	Docs     []string         `json:"docs,omitempty"`
}

// StorageEntryType is either a plain value or a hashed map.
type StorageEntryType struct {
	Plain *uint32     `json:"Plain,omitempty"`
	Map   *StorageMap `json:"Map,omitempty"`
}

type StorageMap struct {
	Hashers []string `json:"hashers"`
	Key     uint32   `json:"key"`
	Value   uint32   `json:"value"`
}

// ValueType returns the type id of the stored value.
func (t StorageEntryType) ValueType() uint32 {
	if t.Map != nil {
		return t.Map.Value
	}
	if t.Plain != nil {
		return *t.Plain
	}
	return 0
}

type PalletConstant struct {
	Name  string   `json:"name"`
	Ty    uint32   `json:"ty"`
	Value Bytes    `json:"value"`
	Docs  []string `json:"docs,omitempty"`
}

// Extrinsic describes the call envelope. Ty is set for V14, the split type
// ids for V15.
type Extrinsic struct {
	Ty               *uint32           `json:"ty,omitempty"`
	Version          uint8             `json:"version"`
	AddressTy        *uint32           `json:"address_ty,omitempty"`
	CallTy           *uint32           `json:"call_ty,omitempty"`
	SignatureTy      *uint32           `json:"signature_ty,omitempty"`
	ExtraTy          *uint32           `json:"extra_ty,omitempty"`
	SignedExtensions []SignedExtension `json:"signed_extensions"`
}

type SignedExtension struct {
	Identifier       string `json:"identifier"`
	Ty               uint32 `json:"ty"`
	AdditionalSigned uint32 `json:"additional_signed"`
}

type RuntimeAPI struct {
	Name    string             `json:"name"`
	Methods []RuntimeAPIMethod `json:"methods"`
	Docs    []string           `json:"docs,omitempty"`
}

type RuntimeAPIMethod struct {
	Name   string                  `json:"name"`
	Inputs []RuntimeAPIMethodParam `json:"inputs"`
	Output uint32                  `json:"output"`
	Docs   []string                `json:"docs,omitempty"`
}

type RuntimeAPIMethodParam struct {
	Name string `json:"name"`
	Ty   uint32 `json:"ty"`
}

type OuterEnums struct {
	CallEnumTy  uint32 `json:"call_enum_ty"`
	EventEnumTy uint32 `json:"event_enum_ty"`
	ErrorEnumTy uint32 `json:"error_enum_ty"`
}
