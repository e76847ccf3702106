// Package domain holds the document model shared by the builder, the
// renderers and the preview server. It carries no rendering or transport code.
package domain
