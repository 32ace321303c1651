package main

import (
	"container/heap"
)

// Node represents a cell in the A* search
type Node struct {
	CellID int     // Index of the cell in the partition
	G      float64 // Cost from start to this cell
	H      float64 // Heuristic cost from this cell to the goal
	F      float64 // Total cost (G + H)
	Seq    int     // Insertion order, breaks F ties
	Parent *Node
	Index  int // Index in the heap
}

// PriorityQueue implements heap.Interface for A* algorithm
type PriorityQueue []*Node

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].F != pq[j].F {
		return pq[i].F < pq[j].F
	}
	return pq[i].Seq < pq[j].Seq
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*Node)
	node.Index = n
	*pq = append(*pq, node)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*pq = old[0 : n-1]
	return node
}

// SearchStats reports what a search did
type SearchStats struct {
	Expanded int     // cells popped and closed
	Cost     float64 // cost of the center-to-center path, when found
}

// AStarPathOnGraph computes the shortest chain of cell centers from startIdx
// to endIdx. Edge costs and the heuristic are Euclidean distances between
// centers, so the heuristic is consistent and a closed cell is never
// reopened.
func AStarPathOnGraph(graph *CellGraph, startIdx, endIdx int) ([]Point, SearchStats, bool) {
	var stats SearchStats
	if graph == nil || graph.FreeCount() == 0 {
		return []Point{}, stats, false
	}

	endPoint := graph.Center(endIdx)

	openSet := &PriorityQueue{}
	heap.Init(openSet)

	seq := 0
	h0 := graph.Center(startIdx).Distance(endPoint)
	startNode := &Node{CellID: startIdx, G: 0, H: h0, F: h0, Seq: seq}
	heap.Push(openSet, startNode)

	closedSet := make(map[int]bool)
	openSetMap := make(map[int]*Node)
	openSetMap[startIdx] = startNode

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*Node)
		delete(openSetMap, current.CellID)
		if closedSet[current.CellID] {
			continue
		}
		closedSet[current.CellID] = true
		stats.Expanded++

		if current.CellID == endIdx {
			stats.Cost = current.G
			path := []Point{}
			for node := current; node != nil; node = node.Parent {
				path = append(path, graph.Center(node.CellID))
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, stats, true
		}

		for _, edge := range graph.Neighbors(current.CellID) {
			neighborID := edge.To
			if closedSet[neighborID] {
				continue
			}

			tentativeG := current.G + edge.Cost

			neighbor, exists := openSetMap[neighborID]
			if !exists {
				seq++
				neighbor = &Node{
					CellID: neighborID,
					G:      tentativeG,
					H:      graph.Center(neighborID).Distance(endPoint),
					Seq:    seq,
					Parent: current,
				}
				neighbor.F = neighbor.G + neighbor.H
				heap.Push(openSet, neighbor)
				openSetMap[neighborID] = neighbor
			} else if tentativeG < neighbor.G {
				// Found a better path to this neighbor
				neighbor.G = tentativeG
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				heap.Fix(openSet, neighbor.Index)
			}
		}
	}

	// No path found
	return []Point{}, stats, false
}
