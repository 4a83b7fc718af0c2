// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package models defines data structures used throughout the Attentia application.

This package contains all core domain models, API response envelopes, and
pagination types. It serves as the single source of truth for data structure
definitions shared between the database, API, and event layers.

Key Components:

  - User: Account with role-based permissions (viewer, editor, admin)
  - Visualization: A rendered attention visualization with its input parameters
  - Annotation: A collaborative note anchored to a token range of a visualization
  - APIResponse: Standardized API response wrapper
  - PaginationInfo: Cursor-based pagination metadata

Model Categories:

 1. Database Models:
    User, Visualization, Annotation map 1:1 to DuckDB tables.

 2. API Request/Response Models:
    APIResponse wraps every JSON endpoint. AnnotationWithUser joins the
    author's username for list responses.

 3. Pagination Models:
    VisualizationCursor encodes (created_at, id) as an opaque base64 cursor
    for stable traversal of the visualization list.

Thread Safety:

All models are plain data structures without internal locking. They are safe
for concurrent reads after creation.

JSON Marshaling:

All models use snake_case struct tags. Sensitive fields (password hashes)
carry json:"-" and never leave the process. Time fields use RFC3339.

See Also:

  - internal/database: persistence for these models
  - internal/api: HTTP handlers returning these models
*/
package models
