// Package uitest is a test harness for widget implementations. It drives
// a reconciliation tree the way a connected session would, records the
// outbound traffic, and offers assertion helpers over the render tree.
package uitest
