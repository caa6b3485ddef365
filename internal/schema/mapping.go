package schema

import (
	"fmt"
	"strings"

	"github.com/schemakit/schemakit/typeexpr"
)

// StorageType is the canonical physical column type a declared type
// expression maps to.
type StorageType string

const (
	StorageText        StorageType = "text"
	StorageUUID        StorageType = "uuid"
	StorageInteger     StorageType = "integer"
	StorageNumeric     StorageType = "numeric"
	StorageBoolean     StorageType = "boolean"
	StorageTimestampTZ StorageType = "timestamptz"
	StorageTimestamp   StorageType = "timestamp"
	StorageJSONB       StorageType = "jsonb"
)

// MapDeclaredType derives the storage type for a parsed type
// expression. Optionality is stripped first: Optional[T] maps to T's
// storage type (nullability is a column property, not a type). A union
// whose members map to different storage types is ambiguous and
// refused with a *ReconciliationError rather than guessed.
func MapDeclaredType(expr *typeexpr.Expr) (StorageType, error) {
	if expr == nil {
		return "", &ReconciliationError{Reason: "no type expression"}
	}

	base := expr.NonNull()
	if base == nil {
		return "", &ReconciliationError{Reason: fmt.Sprintf("type %q has no storable member", expr)}
	}

	switch base.Kind {
	case typeexpr.KindString:
		switch base.Format {
		case typeexpr.FormatUUID:
			return StorageUUID, nil
		case typeexpr.FormatDateTime:
			return StorageTimestampTZ, nil
		default:
			return StorageText, nil
		}
	case typeexpr.KindInt:
		return StorageInteger, nil
	case typeexpr.KindFloat:
		return StorageNumeric, nil
	case typeexpr.KindBool:
		return StorageBoolean, nil
	case typeexpr.KindDatetime:
		return StorageTimestampTZ, nil
	case typeexpr.KindDict, typeexpr.KindList, typeexpr.KindMap, typeexpr.KindAny:
		return StorageJSONB, nil
	case typeexpr.KindUnion:
		return mapUnion(base)
	default:
		return "", &ReconciliationError{Reason: fmt.Sprintf("type %q has no storage mapping", expr)}
	}
}

// mapUnion accepts a union only when every member agrees on storage.
func mapUnion(union *typeexpr.Expr) (StorageType, error) {
	var storage StorageType
	for _, member := range union.Args {
		mapped, err := MapDeclaredType(member)
		if err != nil {
			return "", err
		}
		if storage == "" {
			storage = mapped
			continue
		}
		if mapped != storage {
			return "", &ReconciliationError{
				Reason: fmt.Sprintf("union %q mixes storage types %s and %s", union, storage, mapped),
			}
		}
	}
	return storage, nil
}

// observedStorage normalizes an information_schema data_type to the
// canonical storage vocabulary for comparison with declared types.
func observedStorage(dataType string) StorageType {
	switch strings.ToLower(strings.TrimSpace(dataType)) {
	case "text", "character varying", "varchar", "character", "char", "citext":
		return StorageText
	case "uuid":
		return StorageUUID
	case "smallint", "integer", "bigint", "int2", "int4", "int8":
		return StorageInteger
	case "numeric", "decimal", "real", "double precision", "float4", "float8":
		return StorageNumeric
	case "boolean", "bool":
		return StorageBoolean
	case "timestamp with time zone", "timestamptz":
		return StorageTimestampTZ
	case "timestamp without time zone", "timestamp":
		return StorageTimestamp
	case "json", "jsonb":
		return StorageJSONB
	default:
		return StorageType(strings.ToLower(dataType))
	}
}

// columnType renders the storage type as DDL column syntax.
func columnType(storage StorageType) string {
	if storage == StorageTimestampTZ {
		return "timestamp with time zone"
	}
	return string(storage)
}
