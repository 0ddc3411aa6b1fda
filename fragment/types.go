// Package fragment implements the KFX data model: typed (fid, ftype) nodes
// whose payload is an ion.Value, plus the rules that tie fragments to each
// other and to the symbol table that names them.
package fragment

import "kfxcore/symbols"

// Well-known fragment and field symbol IDs referenced by the fragment-ID
// derivation rules and the shape constraints below. Names follow the
// shared catalog's resolved spelling where one exists.
const (
	SymTextContent        symbols.Sym = 145 // content (text content, aka "text_content")
	SymContentList        symbols.Sym = 146 // content_list
	SymStyle              symbols.Sym = 157 // style
	SymID                 symbols.Sym = 155 // id
	SymExternalResource   symbols.Sym = 164 // external_resource
	SymContainsIDs        symbols.Sym = 181 // contains
	SymContainerList      symbols.Sym = 252 // container_list
	SymStyleName          symbols.Sym = 173 // style_name: derived-id field on $157
	SymSectionName        symbols.Sym = 174 // section_name: derived-id field on $260
	SymLocation           symbols.Sym = 165 // location: derived-id field on $417
	SymEntityDependencies symbols.Sym = 253 // entity_dependencies
	SymMandatoryDeps      symbols.Sym = 254 // mandatory_dependencies
	SymOptionalDeps       symbols.Sym = 255 // optional_dependencies
	SymMetadata           symbols.Sym = 258 // metadata
	SymStoryline          symbols.Sym = 259 // storyline
	SymSection            symbols.Sym = 260 // section
	SymBookNavigation     symbols.Sym = 389 // book_navigation
	SymResourcePath       symbols.Sym = 395 // resource_path
	SymRawMedia           symbols.Sym = 417 // raw_media
	SymContainerEntityMap symbols.Sym = 419 // container_entity_map
	SymBookMetadata       symbols.Sym = 490 // book_metadata
	SymDocumentData       symbols.Sym = 538 // document_data
	SymLocationMap        symbols.Sym = 550 // location_map
	SymContentFeatures    symbols.Sym = 585 // content_features
	SymFormatCapabilities symbols.Sym = 593 // format_capabilities
	symUnnamed262         symbols.Sym = 262 // no resolved name in the source catalog

	SymListStyle    symbols.Sym = 100 // list_style: a style struct's list-bullet field
	SymCJKListStyle symbols.Sym = 739 // cjk_list_style?, overloaded with a text-emphasis mapping in some producers
)

// Singleton is the set of fragment types a container may carry at most one
// instance of. Every singleton type is also a root type: fid == ftype for
// each, since there is nothing to disambiguate it from.
var Singleton = map[symbols.Sym]bool{
	SymMetadata:           true,
	symUnnamed262:         true,
	SymBookNavigation:     true,
	SymResourcePath:       true,
	SymContainerEntityMap: true,
	SymBookMetadata:       true,
	SymDocumentData:       true,
	SymLocationMap:        true,
	SymContentFeatures:    true,
}

// Root is the set of fragment types whose fid equals their ftype. It is a
// superset of Singleton only in principle; today the two sets coincide,
// but they are kept distinct because a future producer could introduce a
// root type with more than one instance (keyed some other way).
var Root = Singleton

// Raw is the set of fragment types whose Value carries an opaque byte blob
// (ion.BlobType) rather than a parsed Ion structure. $417 (raw_media) is
// the only one KFX defines.
var Raw = map[symbols.Sym]bool{
	SymRawMedia: true,
}

// mainTypes, metadataTypes and attachableTypes drive container
// classification: the presence of any symbol in mainTypes makes a
// container KFX-main, else metadataTypes makes it KFX-metadata, else
// attachableTypes makes it KFX-attachable.
var mainTypes = map[symbols.Sym]bool{
	SymStoryline:    true,
	SymSection:      true,
	SymDocumentData: true,
}

var metadataTypes = map[symbols.Sym]bool{
	SymMetadata:        true,
	SymBookMetadata:    true,
	SymContentFeatures: true,
}

var attachableTypes = map[symbols.Sym]bool{
	SymRawMedia: true,
}

// Classification names the three container roles a KFX container can play.
type Classification int

const (
	Unclassified Classification = iota
	Main
	Metadata
	Attachable
)

func (c Classification) String() string {
	switch c {
	case Main:
		return "KFX-main"
	case Metadata:
		return "KFX-metadata"
	case Attachable:
		return "KFX-attachable"
	default:
		return "unclassified"
	}
}

// Classify inspects the fragment types present in a set and returns the
// classification, in main > metadata > attachable priority order.
func Classify(types map[symbols.Sym]bool) Classification {
	for t := range types {
		if mainTypes[t] {
			return Main
		}
	}
	for t := range types {
		if metadataTypes[t] {
			return Metadata
		}
	}
	for t := range types {
		if attachableTypes[t] {
			return Attachable
		}
	}
	return Unclassified
}
