// Package diag provides the structured diagnostics sink consumed by every
// checking phase. Error codes follow a consistent per-phase taxonomy so
// tooling can group and explain them without parsing prose.
package diag

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind is the symbolic name of a diagnostic condition, independent of its
// numeric code. Visitors key off Kind; codes.go assigns the stable string
// code rendered to users.
type Kind string

const (
	KindTypeMismatch           Kind = "TypeMismatch"
	KindUnknownType            Kind = "UnknownType"
	KindUnknownMember          Kind = "UnknownMember"
	KindUnknownSymbol          Kind = "UnknownSymbol"
	KindAccessViolation        Kind = "AccessViolation"
	KindMissingReturn          Kind = "MissingReturn"
	KindUnreachableCode        Kind = "UnreachableCode"
	KindNonExhaustiveMatch     Kind = "NonExhaustiveMatch"
	KindCircularInheritance    Kind = "CircularInheritance"
	KindDuplicateDeclaration   Kind = "DuplicateDeclaration"
	KindShadowedExport         Kind = "ShadowedExport"
	KindGenericArityMismatch   Kind = "GenericArityMismatch"
	KindGenericConstraintViol  Kind = "GenericConstraintViolation"
	KindUtilityMisapplied      Kind = "UtilityMisapplied"
	KindModuleNotFound         Kind = "ModuleNotFound"
	KindExportNotFound         Kind = "ExportNotFound"
	KindCircularValueDep       Kind = "CircularValueDependency"
	KindCircularReExport       Kind = "CircularReExport"
	KindReExportChainTooDeep   Kind = "ReExportChainTooDeep"
	KindTypeCheckRecursionLim  Kind = "TypeCheckRecursionLimit"
	KindRuntimeImportOfTypeOnl Kind = "RuntimeImportOfTypeOnly"
	KindUnusedSymbol           Kind = "UnusedSymbol"
	KindUnsoundVariance        Kind = "UnsoundVariance"
)

// codeOf assigns the stable error code for each kind, mirroring the
// phase-prefixed taxonomy (TYP### for the type engine, MDL### for the
// module engine, SYM### for symbol-table declaration rules).
var codeOf = map[Kind]string{
	KindTypeMismatch:           "TYP001",
	KindUnknownType:            "TYP002",
	KindUnknownMember:          "TYP003",
	KindUnknownSymbol:          "TYP004",
	KindAccessViolation:        "TYP005",
	KindMissingReturn:          "TYP006",
	KindUnreachableCode:        "TYP007",
	KindNonExhaustiveMatch:     "TYP008",
	KindCircularInheritance:    "TYP009",
	KindGenericArityMismatch:   "TYP010",
	KindGenericConstraintViol:  "TYP011",
	KindUtilityMisapplied:      "TYP012",
	KindTypeCheckRecursionLim:  "TYP013",
	KindUnsoundVariance:        "TYP014",
	KindDuplicateDeclaration:   "SYM001",
	KindShadowedExport:         "SYM002",
	KindUnusedSymbol:           "SYM003",
	KindModuleNotFound:         "MDL001",
	KindExportNotFound:         "MDL002",
	KindCircularValueDep:       "MDL003",
	KindCircularReExport:       "MDL004",
	KindReExportChainTooDeep:   "MDL005",
	KindRuntimeImportOfTypeOnl: "MDL006",
}

// Code returns the stable error code for k, or "TYP000" if k is unknown
// (defensive default; every kind used by this module is registered above).
func Code(k Kind) string {
	if c, ok := codeOf[k]; ok {
		return c
	}
	return "TYP000"
}

// DefaultSeverity returns the severity a kind carries unless a call site
// overrides it (warnings are the three kinds spec.md calls out explicitly).
func DefaultSeverity(k Kind) Severity {
	switch k {
	case KindShadowedExport, KindUnusedSymbol, KindUnsoundVariance:
		return SeverityWarning
	default:
		return SeverityError
	}
}
