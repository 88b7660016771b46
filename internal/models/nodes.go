// Package models defines the JSON shapes exchanged with the DataVault API.
package models

import "time"

// NodeType discriminates the three kinds of nodes in the namespace.
type NodeType string

const (
	NodeTypeRoom   NodeType = "room"
	NodeTypeFolder NodeType = "folder"
	NodeTypeFile   NodeType = "file"
)

// Node is a file, folder or room. State-mutating calls identify nodes by
// integer id; paths are resolved once and then discarded.
type Node struct {
	ID                    uint64           `json:"id"`
	Type                  NodeType         `json:"type"`
	Name                  string           `json:"name"`
	ParentID              uint64           `json:"parentId,omitempty"`
	ParentPath            string           `json:"parentPath,omitempty"`
	Size                  int64            `json:"size,omitempty"`
	IsEncrypted           bool             `json:"isEncrypted,omitempty"`
	TimestampCreation     *time.Time       `json:"timestampCreation,omitempty"`
	TimestampModification *time.Time       `json:"timestampModification,omitempty"`
	Permissions           *NodePermissions `json:"permissions,omitempty"`
	CntRooms              int              `json:"cntRooms,omitempty"`
	CntFolders            int              `json:"cntFolders,omitempty"`
	CntFiles              int              `json:"cntFiles,omitempty"`
}

// NodePermissions mirrors the service's per-node permission flags.
type NodePermissions struct {
	Manage              bool `json:"manage"`
	Read                bool `json:"read"`
	Create              bool `json:"create"`
	Change              bool `json:"change"`
	Delete              bool `json:"delete"`
	ManageDownloadShare bool `json:"manageDownloadShare"`
	ManageUploadShare   bool `json:"manageUploadShare"`
	ReadRecycleBin      bool `json:"readRecycleBin"`
	RestoreRecycleBin   bool `json:"restoreRecycleBin"`
	DeleteRecycleBin    bool `json:"deleteRecycleBin"`
}

// Range is the pagination envelope returned by every list endpoint.
type Range struct {
	Offset int64 `json:"offset"`
	Limit  int64 `json:"limit"`
	Total  int64 `json:"total"`
}

// NodeList is a ranged list of nodes.
type NodeList struct {
	Range Range  `json:"range"`
	Items []Node `json:"items"`
}

// CreateFolderRequest creates a folder under a parent node.
type CreateFolderRequest struct {
	ParentID uint64 `json:"parentId"`
	Name     string `json:"name"`
	Notes    string `json:"notes,omitempty"`
}

// CreateRoomRequest creates a top-level or nested room.
type CreateRoomRequest struct {
	Name               string   `json:"name"`
	ParentID           uint64   `json:"parentId,omitempty"`
	AdminIDs           []uint64 `json:"adminIds,omitempty"`
	AdminGroupIDs      []uint64 `json:"adminGroupIds,omitempty"`
	InheritPermissions *bool    `json:"inheritPermissions,omitempty"`
	Classification     int      `json:"classification,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// TransferNodesRequest moves or copies nodes into a target parent.
type TransferNodesRequest struct {
	Items              []TransferNode     `json:"items"`
	ResolutionStrategy ResolutionStrategy `json:"resolutionStrategy,omitempty"`
	KeepShareLinks     bool               `json:"keepShareLinks,omitempty"`
}

// TransferNode names a single node to move or copy.
type TransferNode struct {
	ID   uint64 `json:"id"`
	Name string `json:"name,omitempty"`
}

// DeleteNodesRequest deletes a batch of nodes.
type DeleteNodesRequest struct {
	NodeIDs []uint64 `json:"nodeIds"`
}
