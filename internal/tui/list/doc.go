// Package listview provides the expandable list component for Bubble Tea
// dashboards.
//
// Items render through a RenderFunc that may return several lines for one
// item, which is how expanded rows carry their inline detail panels. The
// list windows rendering by the viewport's line budget: only the items that
// fit around the selection are rendered, so large collections stay cheap
// and the selected item stays on screen no matter how many of its neighbors
// are expanded.
package listview
