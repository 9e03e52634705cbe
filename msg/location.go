// Package msg implements the typed message model: an addressable
// Location, a refcounted tagged-union Message whose routing fields and
// properties can no longer be mutated once it is shared (refcount > 1),
// and locked payload buffers for frame variants.
//
// Grounded on transport/api.go's ObjHdr/Obj shape (a plain comparable header
// struct plus a refcounted payload holder) and core/meta/bck.go's 4-field
// comparable value type with an IsEmpty/equality helper set.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package msg

// Location addresses an extension within a graph, possibly in another app.
// Any empty field means "current": resolved relative to whichever
// extension is doing the resolving.
type Location struct {
	AppURI             string
	GraphID            string
	ExtensionGroupName string
	ExtensionName      string
}

// IsEmpty reports whether every field is unset, i.e. "current location".
func (l Location) IsEmpty() bool {
	return l.AppURI == "" && l.GraphID == "" && l.ExtensionGroupName == "" && l.ExtensionName == ""
}

// IsLocalApp reports whether AppURI denotes this app: empty or "localhost".
func (l Location) IsLocalApp() bool {
	return l.AppURI == "" || l.AppURI == "localhost"
}

// Equal is field-wise equality.
func (l Location) Equal(o Location) bool {
	return l.AppURI == o.AppURI &&
		l.GraphID == o.GraphID &&
		l.ExtensionGroupName == o.ExtensionGroupName &&
		l.ExtensionName == o.ExtensionName
}
