// Package tracker records offline episodes per room and renders their duration.
package tracker
